// Package pagerduty adapts the PagerDuty REST API to the review engine's
// incident source.
package pagerduty

import (
	"context"
	"fmt"
	"time"

	pd "github.com/PagerDuty/go-pagerduty"

	"github.com/linnemanlabs/go-core/log"

	"github.com/oncallops/revu/internal/incident"
)

// pageLimit is the PagerDuty maximum page size.
const pageLimit = 100

// Source fetches recent incidents from PagerDuty.
type Source struct {
	client *pd.Client
	window time.Duration
	logger log.Logger
	now    func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// WithAPIEndpoint points the client at a different API base URL, for tests.
func WithAPIEndpoint(endpoint string) Option {
	return func(s *Source) { s.client = pd.NewClient("", pd.WithAPIEndpoint(endpoint)) }
}

// NewSource creates a Source reporting incidents created within the given
// lookback window.
func NewSource(token string, window time.Duration, opts ...Option) *Source {
	s := &Source{
		client: pd.NewClient(token),
		window: window,
		logger: log.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecentIncidents lists every incident created within the lookback window,
// walking the paginated API to exhaustion.
func (s *Source) RecentIncidents(ctx context.Context) ([]incident.Incident, error) {
	since := s.now().Add(-s.window).UTC().Format(time.RFC3339)

	var out []incident.Incident
	opts := pd.ListIncidentsOptions{
		Limit:  pageLimit,
		Since:  since,
		SortBy: "created_at",
	}
	for {
		resp, err := s.client.ListIncidentsWithContext(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list incidents: %w", err)
		}
		for _, raw := range resp.Incidents {
			out = append(out, convert(raw))
		}
		if !resp.More {
			break
		}
		opts.Offset += pageLimit
	}

	s.logger.Info(ctx, "fetched incidents", "count", len(out), "since", since)
	return out, nil
}

// convert maps a PagerDuty incident onto the engine's incident type. An
// incident without a priority keeps an empty Priority and is dropped later
// by the review filter.
func convert(raw pd.Incident) incident.Incident {
	inc := incident.Incident{
		Number:  raw.IncidentNumber,
		Title:   raw.Title,
		HTMLURL: raw.HTMLURL,
	}
	if raw.Priority != nil {
		inc.Priority = raw.Priority.Name
	}
	return inc
}
