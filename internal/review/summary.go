package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/oncallops/revu/internal/incident"
)

const summaryTemplate = `
Hello everyone and happy %s!

We have selected the following incidents for review:
%s

and the following incidents have been excluded from review:
%s

These are only *newly scheduled* incidents.%s
Please comment in the thread to request an adjustment to the list.`

// ComposeSummary renders the partition into the announcement message for
// the review channel. Pure formatting: the weekday comes from now, the
// optional selectionURL links the full schedule.
func ComposeSummary(now time.Time, p *Partition, selectionURL string) string {
	var schedule string
	if selectionURL != "" {
		schedule = fmt.Sprintf(" All incidents scheduled for review can be found <%s|here>.", selectionURL)
	}
	return fmt.Sprintf(summaryTemplate,
		now.Weekday().String(),
		shortList(p.ToReview),
		shortList(p.Excluded),
		schedule,
	)
}

func shortList(incidents []incident.Incident) string {
	lines := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		lines = append(lines, inc.Short())
	}
	return strings.Join(lines, "\n")
}
