package cfg

import (
	"errors"
	"flag"
	"fmt"

	"github.com/oncallops/revu/internal/incident"
	"github.com/oncallops/revu/internal/review"
)

// Config carries every setting of the review tool, bound to flags and
// filled from the environment by main.
type Config struct {
	Debug bool

	MinPriority         string
	SimilarityThreshold float64
	LookbackDays        int

	PagerDutyToken string
	SlackToken     string
	NotionToken    string

	DatabaseURL   string
	CacheDir      string
	CacheTTLHours int

	AnnounceChannel string
	DebugChannel    string

	DatabaseID       string
	DebugDatabaseID  string
	DatabaseName     string
	SelectionPageURL string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Debug, "debug", false, "route the announcement and inserts to the debug channel/database")
	fs.StringVar(&c.MinPriority, "min-priority", "P2", "lowest incident priority to review, e.g. P2 keeps P0..P2")
	fs.Float64Var(&c.SimilarityThreshold, "similarity-threshold", 0.9, "title similarity required to group incidents (0..1)")
	fs.IntVar(&c.LookbackDays, "lookback-days", 14, "how many days of incidents to fetch (1..90)")
	fs.StringVar(&c.PagerDutyToken, "pagerduty-token", "", "PagerDuty REST API token")
	fs.StringVar(&c.SlackToken, "slack-token", "", "Slack bot token for listings and the announcement")
	fs.StringVar(&c.NotionToken, "notion-token", "", "Notion integration token (empty = skip Notion persistence)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for run records (empty = in-memory store)")
	fs.StringVar(&c.CacheDir, "cache-dir", "", "directory for directory-listing caches (empty = no caching)")
	fs.IntVar(&c.CacheTTLHours, "cache-ttl-hours", 24, "hours before a cached listing goes stale")
	fs.StringVar(&c.AnnounceChannel, "announce-channel", "incident-postmortems", "Slack channel for the review summary")
	fs.StringVar(&c.DebugChannel, "debug-channel", "test-notifications", "Slack channel used with -debug")
	fs.StringVar(&c.DatabaseID, "notion-database-id", "", "Notion database ID for selected incidents")
	fs.StringVar(&c.DebugDatabaseID, "notion-debug-database-id", "", "Notion database ID used with -debug")
	fs.StringVar(&c.DatabaseName, "notion-database-name", "Incident Selection", "human-readable name of the Notion database, shown in prompts")
	fs.StringVar(&c.SelectionPageURL, "selection-page-url", "", "URL of the full review schedule, linked from the summary")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := incident.ParsePriorityRank(c.MinPriority); err != nil {
		errs = append(errs, fmt.Errorf("invalid MIN_PRIORITY %q: %w", c.MinPriority, err))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("invalid SIMILARITY_THRESHOLD %v (must be 0..1)", c.SimilarityThreshold))
	}
	if c.LookbackDays <= 0 || c.LookbackDays > 90 {
		errs = append(errs, fmt.Errorf("invalid LOOKBACK_DAYS %d (must be 1..90)", c.LookbackDays))
	}
	if c.CacheTTLHours < 0 {
		errs = append(errs, fmt.Errorf("invalid CACHE_TTL_HOURS %d (must be >= 0)", c.CacheTTLHours))
	}

	if c.PagerDutyToken == "" {
		errs = append(errs, errors.New("PAGERDUTY_TOKEN is required"))
	}
	if c.SlackToken == "" {
		errs = append(errs, errors.New("SLACK_TOKEN is required"))
	}
	if c.NotionToken != "" && c.targetDatabaseID() == "" {
		if c.Debug {
			errs = append(errs, errors.New("NOTION_DEBUG_DATABASE_ID is required with -debug when a Notion token is set"))
		} else {
			errs = append(errs, errors.New("NOTION_DATABASE_ID is required when a Notion token is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Targets resolves the run's destinations, routing to the debug channel and
// database when -debug is set.
func (c *Config) Targets() review.Targets {
	t := review.Targets{
		AnnounceChannel:  c.AnnounceChannel,
		DatabaseID:       c.DatabaseID,
		DatabaseName:     c.DatabaseName,
		SelectionPageURL: c.SelectionPageURL,
	}
	if c.Debug {
		t.AnnounceChannel = c.DebugChannel
		t.DatabaseID = c.DebugDatabaseID
	}
	return t
}

func (c *Config) targetDatabaseID() string {
	if c.Debug {
		return c.DebugDatabaseID
	}
	return c.DatabaseID
}
