package review

import (
	"strconv"
	"strings"
	"time"

	"github.com/oncallops/revu/internal/incident"
)

// Partition is the outcome of the decision engine: every filtered incident
// lands in exactly one of the two sequences, in review order.
type Partition struct {
	ToReview []incident.Incident
	Excluded []incident.Incident
}

// Channel is a Slack conversation as returned by conversations.list.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AttachChannels links incidents to their dedicated Slack channels: a
// channel whose name contains the incident number is taken as that
// incident's channel. Incidents that already carry a channel are left
// alone.
func AttachChannels(incidents []incident.Incident, channels []Channel) {
	for i := range incidents {
		if incidents[i].SlackChannel != "" {
			continue
		}
		number := strconv.FormatUint(uint64(incidents[i].Number), 10)
		for _, ch := range channels {
			if strings.Contains(ch.Name, number) {
				incidents[i].SlackChannel = ch.Name
				break
			}
		}
	}
}

// RecordedIncident is the per-incident slice of a run record.
type RecordedIncident struct {
	Number uint     `json:"number"`
	Title  string   `json:"title"`
	POCs   []string `json:"pocs,omitempty"` // display names of the assigned POC set
}

// RunRecord is the persisted outcome of one review run.
type RunRecord struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	MinPriority string             `json:"min_priority"`
	Threshold   float64            `json:"threshold"`
	ToReview    []RecordedIncident `json:"to_review"`
	Excluded    []RecordedIncident `json:"excluded"`
	Announced   bool               `json:"announced"`
	Persisted   bool               `json:"persisted"`
}

func recordIncidents(incidents []incident.Incident) []RecordedIncident {
	recorded := make([]RecordedIncident, 0, len(incidents))
	for _, inc := range incidents {
		r := RecordedIncident{Number: inc.Number, Title: inc.Title}
		for _, poc := range inc.POCs {
			r.POCs = append(r.POCs, poc.DisplayName())
		}
		recorded = append(recorded, r)
	}
	return recorded
}
