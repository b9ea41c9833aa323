package review

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/oncallops/revu/internal/identity"
	"github.com/oncallops/revu/internal/incident"
)

// IncidentSource supplies the raw incident records for the review window.
type IncidentSource interface {
	RecentIncidents(ctx context.Context) ([]incident.Incident, error)
}

// ChatDirectory lists the chat platform's users and channels exhaustively;
// pagination is the collaborator's problem.
type ChatDirectory interface {
	Users(ctx context.Context) ([]identity.SlackUser, error)
	Channels(ctx context.Context) ([]Channel, error)
}

// PeopleDirectory lists the workspace tool's people exhaustively.
type PeopleDirectory interface {
	People(ctx context.Context) ([]identity.NotionPerson, error)
}

// Broadcaster sends the announcement message to a channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, message string) error
}

// Sink accepts one finalized incident with its POC set resolved.
type Sink interface {
	Persist(ctx context.Context, inc incident.Incident) error
}

// Targets are the run's destination identifiers, resolved once from
// configuration (debug vs production) and passed in explicitly.
type Targets struct {
	AnnounceChannel  string
	DatabaseID       string
	DatabaseName     string
	SelectionPageURL string
}

// Deps carries everything a Service needs. Source, Chat, People, Prompter
// and Engine are required; Broadcaster, Sink, Store and Metrics may be nil
// (the corresponding step is skipped, reported as a collaborator error, or
// unobserved).
type Deps struct {
	Source      IncidentSource
	Chat        ChatDirectory
	People      PeopleDirectory
	Broadcaster Broadcaster
	Sink        Sink
	Store       Store
	Prompter    Prompter
	Engine      *Engine
	Metrics     *Metrics
	Logger      log.Logger
	Out         io.Writer
	Targets     Targets
	MinPriority string
	Threshold   float64
	Now         func() time.Time
}

// Service orchestrates one review run end to end.
type Service struct {
	d Deps
}

// NewService creates a review service from its dependencies.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = log.Nop()
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{d: d}
}

// Run executes a full review: fetch, reconcile, filter, group, decide,
// announce, persist, record. Configuration errors surface before the first
// prompt; any collaborator or prompt failure aborts with nothing committed
// beyond what already reached the sinks.
func (s *Service) Run(ctx context.Context) (record *RunRecord, err error) {
	start := s.d.Now()
	defer func() {
		if s.d.Metrics == nil {
			return
		}
		result := "completed"
		if err != nil {
			result = "failed"
		}
		s.d.Metrics.RunsTotal.WithLabelValues(result).Inc()
		s.d.Metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	L := s.d.Logger

	incidents, err := s.d.Source.RecentIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}
	L.Info(ctx, "retrieved incidents from tracker", "count", len(incidents))

	users, err := s.d.Chat.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chat users: %w", err)
	}
	L.Info(ctx, "retrieved users from Slack", "count", len(users))

	channels, err := s.d.Chat.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chat channels: %w", err)
	}
	AttachChannels(incidents, channels)

	people, err := s.d.People.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch workspace people: %w", err)
	}
	L.Info(ctx, "retrieved people from Notion", "count", len(people))

	identities, stats := identity.Reconcile(users, people)
	L.Info(ctx, "reconciled identities",
		"total", len(identities),
		"matched", stats.Matched,
		"notion_only", stats.NotionOnly,
		"without_email", stats.WithoutEmail,
	)

	filtered, err := incident.FilterForReview(incidents, s.d.MinPriority)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.d.Out, "Reviewing %d recent incidents\n", len(filtered))

	groups, err := GroupByTitle(filtered, s.d.Threshold)
	if err != nil {
		return nil, err
	}
	if s.d.Metrics != nil {
		s.d.Metrics.GroupsPerRun.Observe(float64(len(groups)))
	}

	p, err := s.d.Engine.Review(ctx, groups, identities)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.d.Out, "Incidents marked for review: %s\n", numberList(p.ToReview))

	message := ComposeSummary(s.d.Now(), p, s.d.Targets.SelectionPageURL)
	fmt.Fprintf(s.d.Out, "Here is the message to send in the channel:\n%s\n", message)

	announced, err := s.announce(ctx, message)
	if err != nil {
		return nil, err
	}

	persisted, err := s.persist(ctx, p)
	if err != nil {
		return nil, err
	}

	record = &RunRecord{
		ID:          ulid.Make().String(),
		CreatedAt:   start,
		MinPriority: s.d.MinPriority,
		Threshold:   s.d.Threshold,
		ToReview:    recordIncidents(p.ToReview),
		Excluded:    recordIncidents(p.Excluded),
		Announced:   announced,
		Persisted:   persisted,
	}
	if s.d.Store != nil {
		if err := s.d.Store.Put(ctx, record); err != nil {
			return nil, fmt.Errorf("store run record: %w", err)
		}
	}

	L.Info(ctx, "review run complete",
		"run_id", record.ID,
		"to_review", len(record.ToReview),
		"excluded", len(record.Excluded),
		"announced", announced,
		"persisted", persisted,
	)
	return record, nil
}

// announce asks for confirmation and broadcasts the summary to the
// configured channel. Called at most once per run.
func (s *Service) announce(ctx context.Context, message string) (bool, error) {
	if s.d.Broadcaster == nil {
		return false, nil
	}
	send, err := s.d.Prompter.Confirm(ctx,
		fmt.Sprintf("Send this message to the #%s channel?", s.d.Targets.AnnounceChannel), false)
	if err != nil {
		return false, fmt.Errorf("confirm announce: %w", err)
	}
	if !send {
		return false, nil
	}
	if err := s.d.Broadcaster.Broadcast(ctx, s.d.Targets.AnnounceChannel, message); err != nil {
		return false, fmt.Errorf("broadcast summary: %w", err)
	}
	s.d.Logger.Info(ctx, "summary sent", "channel", s.d.Targets.AnnounceChannel)
	return true, nil
}

// persist asks for confirmation and pushes each kept incident to the sink
// sequentially, stopping on the first failure. An incident with a nil POC
// set here means the engine's assignment step was skipped: fail fast.
func (s *Service) persist(ctx context.Context, p *Partition) (bool, error) {
	if s.d.Sink == nil || len(p.ToReview) == 0 {
		return false, nil
	}
	insert, err := s.d.Prompter.Confirm(ctx,
		fmt.Sprintf("Insert %d incidents into %q Notion database (%s) for review?",
			len(p.ToReview), s.d.Targets.DatabaseName, s.d.Targets.DatabaseID), false)
	if err != nil {
		return false, fmt.Errorf("confirm persist: %w", err)
	}
	if !insert {
		return false, nil
	}
	for _, inc := range p.ToReview {
		if inc.POCs == nil {
			return false, fmt.Errorf("incident %d: %w", inc.Number, ErrNoPOC)
		}
		if err := s.d.Sink.Persist(ctx, inc); err != nil {
			return false, fmt.Errorf("persist incident %d: %w", inc.Number, err)
		}
	}
	return true, nil
}

func numberList(incidents []incident.Incident) string {
	numbers := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		numbers = append(numbers, strconv.FormatUint(uint64(inc.Number), 10))
	}
	return strings.Join(numbers, ", ")
}
