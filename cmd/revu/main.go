// Revu selects recently reported incidents for post-incident review: it
// pulls them from PagerDuty, groups near-duplicates, walks an on-call
// operator through keep/exclude decisions, announces the selection in Slack
// and records it in Notion.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/metrics"
	"github.com/linnemanlabs/go-core/otelx"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oncallops/revu/internal/cache"
	rc "github.com/oncallops/revu/internal/cfg"
	"github.com/oncallops/revu/internal/directory/notion"
	"github.com/oncallops/revu/internal/directory/slack"
	"github.com/oncallops/revu/internal/identity"
	"github.com/oncallops/revu/internal/postgres"
	"github.com/oncallops/revu/internal/prompt"
	"github.com/oncallops/revu/internal/review"
	"github.com/oncallops/revu/internal/review/memstore"
	"github.com/oncallops/revu/internal/review/pgstore"
	"github.com/oncallops/revu/internal/tracker/pagerduty"
)

const appName = "revu"
const component = "cli"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set app name and component
	v.AppName = appName
	v.Component = component

	// Get build/version info
	vi := v.Get()

	// each package registers its own flags and options struct
	var (
		appCfg   rc.Config
		logCfg   log.Config
		traceCfg otelx.Config
	)

	appCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	traceCfg.RegisterFlags(flag.CommandLine)
	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	// parse flags to get config values from cmdline, we check env vars next which do not override cmdline flags
	flag.Parse()
	if showVersion {
		fmt.Printf(
			"%s (%s) %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		return nil
	}

	// Fill in config values from environment variables with prefix REVU_,
	// these do not override cmdline flags
	cfg.FillFromEnv(flag.CommandLine, "REVU_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(
		appCfg.Validate(),
		logCfg.Validate(),
		traceCfg.Validate(),
	); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// initialize logger early
	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"go_version", vi.GoVersion,
		"debug", appCfg.Debug,
		"min_priority", appCfg.MinPriority,
		"similarity_threshold", appCfg.SimilarityThreshold,
		"lookback_days", appCfg.LookbackDays,
		"enable_tracing", traceCfg.EnableTracing,
		"otlp_endpoint", traceCfg.OTLPEndpoint,
	)

	// Setup otel for tracing
	traceOpts := traceCfg.ToOptions()
	traceOpts.Service = v.AppName
	traceOpts.Component = v.Component
	traceOpts.Version = vi.Version

	shutdownOtelx, err := otelx.Init(ctx, traceOpts)
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	if shutdownOtelx != nil {
		defer func() { _ = shutdownOtelx(context.Background()) }()
	}

	// Metrics registry for run instrumentation.
	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, component, &vi)
	reviewMetrics := review.NewMetrics(m.Registry())

	// Register per-query DB duration histogram and wire the observer.
	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "revu_db_query_duration_seconds",
		Help:    "Duration of individual database queries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	m.Registry().MustRegister(dbQueryDuration)

	postgres.SetQueryObserver(postgres.QueryObserverFunc(
		func(_ context.Context, operation, outcome string, dur time.Duration) {
			dbQueryDuration.WithLabelValues(operation, outcome).Observe(dur.Seconds())
		},
	))

	// Listing cache, shared by the Slack and Notion clients.
	var listingCache *cache.Cache
	if appCfg.CacheDir != "" {
		listingCache = cache.New(appCfg.CacheDir, time.Duration(appCfg.CacheTTLHours)*time.Hour)
		L.Info(ctx, "listing cache enabled", "dir", appCfg.CacheDir, "ttl_hours", appCfg.CacheTTLHours)
	}

	// Incident tracker.
	source := pagerduty.NewSource(
		appCfg.PagerDutyToken,
		time.Duration(appCfg.LookbackDays)*24*time.Hour,
		pagerduty.WithLogger(L),
	)

	// Slack: directory listings plus the announcement broadcast.
	slackOpts := []slack.Option{slack.WithLogger(L)}
	if listingCache != nil {
		slackOpts = append(slackOpts, slack.WithCache(listingCache))
	}
	slackClient := slack.New(appCfg.SlackToken, slackOpts...)

	targets := appCfg.Targets()

	// Notion: people listings and, when a token is configured, the incident
	// sink for the review database.
	var people review.PeopleDirectory
	var sink review.Sink
	if appCfg.NotionToken != "" {
		notionOpts := []notion.Option{notion.WithLogger(L)}
		if listingCache != nil {
			notionOpts = append(notionOpts, notion.WithCache(listingCache))
		}
		notionClient := notion.New(appCfg.NotionToken, targets.DatabaseID, notionOpts...)
		people = notionClient
		sink = notionClient
		L.Info(ctx, "notion persistence enabled", "database_id", targets.DatabaseID)
	} else {
		people = emptyPeople{}
		L.Info(ctx, "no notion token configured, skipping Notion persistence")
	}

	// Run record store.
	var store review.Store
	if appCfg.DatabaseURL != "" {
		pgStore, err := pgstore.New(ctx, appCfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("pgstore init: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
		L.Info(ctx, "using postgres store")
	} else {
		store = memstore.New()
		L.Info(ctx, "using in-memory store (no database-url configured)")
	}

	prompter := prompt.NewTerminal(os.Stdin, os.Stdout)
	engine := review.NewEngine(prompter, os.Stdout, L, reviewMetrics.Hooks())

	svc := review.NewService(review.Deps{
		Source:      source,
		Chat:        slackClient,
		People:      people,
		Broadcaster: slackClient,
		Sink:        sink,
		Store:       store,
		Prompter:    prompter,
		Engine:      engine,
		Metrics:     reviewMetrics,
		Logger:      L,
		Out:         os.Stdout,
		Targets:     targets,
		MinPriority: appCfg.MinPriority,
		Threshold:   appCfg.SimilarityThreshold,
	})

	record, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("review run: %w", err)
	}

	L.Info(ctx, "run recorded",
		"run_id", record.ID,
		"to_review", len(record.ToReview),
		"excluded", len(record.Excluded),
	)
	return nil
}

// emptyPeople stands in for the Notion directory when no token is
// configured. Reconciliation walks the Notion side, so an empty listing
// yields no selectable identities.
type emptyPeople struct{}

func (emptyPeople) People(context.Context) ([]identity.NotionPerson, error) { return nil, nil }
