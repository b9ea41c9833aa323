// Package pgstore provides a PostgreSQL implementation of review.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncallops/revu/internal/postgres"
	"github.com/oncallops/revu/internal/review"
)

var tracer = otel.Tracer("github.com/oncallops/revu/internal/review/pgstore")

//go:embed schema.sql
var schema string

// Store persists review run records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, applies the schema, and returns a ready Store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const runColumns = `id, created_at, min_priority, threshold, to_review, excluded, announced, persisted`

// Put inserts or updates a run record (upsert on the run ID).
func (s *Store) Put(ctx context.Context, r *review.RunRecord) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()
	ctx = postgres.WithOperation(ctx, "record")

	toReviewJSON, err := json.Marshal(r.ToReview)
	if err != nil {
		return fmt.Errorf("marshal to_review: %w", err)
	}
	excludedJSON, err := json.Marshal(r.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	query := `INSERT INTO review_runs (` + runColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (id) DO UPDATE SET
		min_priority = EXCLUDED.min_priority,
		threshold    = EXCLUDED.threshold,
		to_review    = EXCLUDED.to_review,
		excluded     = EXCLUDED.excluded,
		announced    = EXCLUDED.announced,
		persisted    = EXCLUDED.persisted`

	if _, err := s.pool.Exec(ctx, query,
		r.ID, r.CreatedAt, r.MinPriority, r.Threshold,
		toReviewJSON, excludedJSON, r.Announced, r.Persisted,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// Get retrieves a run record by ID.
func (s *Store) Get(ctx context.Context, id string) (*review.RunRecord, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()
	ctx = postgres.WithOperation(ctx, "record")

	query := `SELECT ` + runColumns + ` FROM review_runs WHERE id = $1`
	r, err := scanRunRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Recent returns up to limit run records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*review.RunRecord, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Recent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()
	ctx = postgres.WithOperation(ctx, "recent")

	query := `SELECT ` + runColumns + ` FROM review_runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*review.RunRecord
	for rows.Next() {
		r, err := scanRunRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// scanRunRow scans a single row into a review.RunRecord. Returns (nil, nil)
// when no row is found.
func scanRunRow(row pgx.Row) (*review.RunRecord, error) {
	var (
		r            review.RunRecord
		toReviewJSON []byte
		excludedJSON []byte
	)

	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.MinPriority, &r.Threshold,
		&toReviewJSON, &excludedJSON, &r.Announced, &r.Persisted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if err := json.Unmarshal(toReviewJSON, &r.ToReview); err != nil {
		return nil, fmt.Errorf("unmarshal to_review: %w", err)
	}
	if err := json.Unmarshal(excludedJSON, &r.Excluded); err != nil {
		return nil, fmt.Errorf("unmarshal excluded: %w", err)
	}

	return &r, nil
}
