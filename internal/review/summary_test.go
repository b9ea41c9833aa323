package review

import (
	"strings"
	"testing"
	"time"

	"github.com/oncallops/revu/internal/incident"
)

func TestComposeSummary(t *testing.T) {
	t.Parallel()

	// 2026-09-01 is a Tuesday.
	tuesday := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	p := &Partition{
		ToReview: titled("Incident 1", "Incident 2"),
		Excluded: titled("Flaky healthcheck")[:1],
	}

	msg := ComposeSummary(tuesday, p, "https://notion.example.com/selection")

	for _, want := range []string{
		"happy Tuesday!",
		"#1 Incident 1",
		"#2 Incident 2",
		"#1 Flaky healthcheck",
		"*newly scheduled*",
		"<https://notion.example.com/selection|here>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}

	reviewIdx := strings.Index(msg, "selected the following")
	excludedIdx := strings.Index(msg, "excluded from review")
	if reviewIdx < 0 || excludedIdx < 0 || reviewIdx > excludedIdx {
		t.Errorf("sections out of order:\n%s", msg)
	}
}

func TestComposeSummary_NoSelectionURL(t *testing.T) {
	t.Parallel()

	msg := ComposeSummary(time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC), &Partition{}, "")

	if strings.Contains(msg, "|here>") {
		t.Errorf("summary must omit the schedule link without a URL:\n%s", msg)
	}
	if !strings.Contains(msg, "happy Friday!") {
		t.Errorf("summary missing weekday:\n%s", msg)
	}
}

func TestComposeSummary_EmptyPartition(t *testing.T) {
	t.Parallel()

	p := &Partition{ToReview: []incident.Incident{}, Excluded: []incident.Incident{}}
	msg := ComposeSummary(time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), p, "")

	if !strings.Contains(msg, "happy Monday!") {
		t.Errorf("summary missing weekday:\n%s", msg)
	}
	if !strings.Contains(msg, "comment in the thread") {
		t.Errorf("summary missing footer:\n%s", msg)
	}
}
