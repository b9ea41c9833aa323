package review

import "context"

// Store is the persistence interface for review-run records.
type Store interface {
	Put(ctx context.Context, record *RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, bool, error)
	Recent(ctx context.Context, limit int) ([]*RunRecord, error)
}
