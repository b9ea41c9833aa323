// Package incident defines the incident record pulled from the tracker and
// the candidate filter applied before review.
package incident

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oncallops/revu/internal/identity"
)

// Incident is one incident record from the external tracker. POCs stays nil
// until the review engine assigns a set; an explicitly empty selection is a
// non-nil empty slice.
type Incident struct {
	Number       uint                `json:"number"`
	Title        string              `json:"title"`
	Priority     string              `json:"priority,omitempty"`      // severity label such as "P2", "" = none
	SlackChannel string              `json:"slack_channel,omitempty"` // associated channel name, "" = none
	HTMLURL      string              `json:"html_url,omitempty"`
	POCs         []identity.Identity `json:"poc_users,omitempty"`
}

// Short renders the one-line form used in summaries: number and title.
func (i Incident) Short() string {
	return fmt.Sprintf("#%d %s", i.Number, i.Title)
}

// Describe renders the multi-line form shown during review.
func (i Incident) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", i.Number, i.Title)
	if i.Priority != "" {
		fmt.Fprintf(&b, "\n  priority: %s", i.Priority)
	}
	if i.SlackChannel != "" {
		fmt.Fprintf(&b, "\n  channel:  #%s", i.SlackChannel)
	}
	if i.HTMLURL != "" {
		fmt.Fprintf(&b, "\n  link:     %s", i.HTMLURL)
	}
	return b.String()
}

// ParsePriorityRank parses a severity label of the form P<digit> into its
// numeric rank. Lower rank means more severe.
func ParsePriorityRank(label string) (int, error) {
	rank, err := strconv.Atoi(strings.TrimPrefix(label, "P"))
	if err != nil {
		return 0, fmt.Errorf("parse priority label %q: %w", label, err)
	}
	return rank, nil
}

// FilterForReview selects the incidents that are candidates for review: any
// incident with a priority at or above the minPriority severity (rank <=
// threshold rank), plus any incident that already has a Slack channel
// associated regardless of priority. Input order is preserved. An
// unparsable minPriority is a configuration error.
func FilterForReview(incidents []Incident, minPriority string) ([]Incident, error) {
	minRank, err := ParsePriorityRank(minPriority)
	if err != nil {
		return nil, err
	}

	filtered := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.SlackChannel != "" {
			filtered = append(filtered, inc)
			continue
		}
		if inc.Priority == "" {
			continue
		}
		rank, err := ParsePriorityRank(inc.Priority)
		if err != nil {
			// Tracker data, not configuration: skip rather than abort.
			continue
		}
		if rank <= minRank {
			filtered = append(filtered, inc)
		}
	}
	return filtered, nil
}
