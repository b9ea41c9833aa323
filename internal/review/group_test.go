package review

import (
	"testing"

	"github.com/oncallops/revu/internal/incident"
)

func titled(titles ...string) []incident.Incident {
	incidents := make([]incident.Incident, len(titles))
	for i, title := range titles {
		incidents[i] = incident.Incident{Number: uint(i + 1), Title: title}
	}
	return incidents
}

func TestGroupByTitle(t *testing.T) {
	t.Parallel()

	incidents := titled(
		"Incident 1",
		"Incident 2",
		"Another thing entirely",
		"Another thing entirely 2",
		"A third thing that doesn't look the same",
	)

	groups, err := GroupByTitle(incidents, 0.8)
	if err != nil {
		t.Fatalf("GroupByTitle: %v", err)
	}

	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Title != "Incident 1" || len(groups[0].Incidents) != 2 {
		t.Errorf("group 0 = %q size %d, want \"Incident 1\" size 2", groups[0].Title, len(groups[0].Incidents))
	}
	if groups[1].Title != "Another thing entirely" || len(groups[1].Incidents) != 2 {
		t.Errorf("group 1 = %q size %d, want \"Another thing entirely\" size 2", groups[1].Title, len(groups[1].Incidents))
	}
	if groups[2].Title != "A third thing that doesn't look the same" || len(groups[2].Incidents) != 1 {
		t.Errorf("group 2 = %q size %d, want size 1", groups[2].Title, len(groups[2].Incidents))
	}
}

func TestGroupByTitle_AllSimilar(t *testing.T) {
	t.Parallel()

	incidents := titled(
		"Incident 1",
		"Incident 1",
		"Incident 2",
		"Incident 2",
		"Incident 3",
	)

	groups, err := GroupByTitle(incidents, 0.8)
	if err != nil {
		t.Fatalf("GroupByTitle: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].Title != "Incident 1" {
		t.Errorf("representative title = %q, want \"Incident 1\"", groups[0].Title)
	}
	if len(groups[0].Incidents) != 5 {
		t.Errorf("group size = %d, want 5", len(groups[0].Incidents))
	}
}

func TestGroupByTitle_InvalidThreshold(t *testing.T) {
	t.Parallel()

	for _, threshold := range []float64{-0.5, -0.0001, 1.0001, 2.0} {
		if _, err := GroupByTitle(titled("a"), threshold); err == nil {
			t.Errorf("threshold %v: expected configuration error", threshold)
		}
	}
}

func TestGroupByTitle_BoundaryThresholds(t *testing.T) {
	t.Parallel()

	// 0.0 puts everything in one group, 1.0 only groups identical prefixes.
	groups, err := GroupByTitle(titled("aaa", "zzz", "qqq"), 0.0)
	if err != nil {
		t.Fatalf("GroupByTitle(0.0): %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("threshold 0.0: groups = %d, want 1", len(groups))
	}

	groups, err = GroupByTitle(titled("aaa", "zzz", "aaa"), 1.0)
	if err != nil {
		t.Fatalf("GroupByTitle(1.0): %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("threshold 1.0: groups = %d, want 2", len(groups))
	}
}

func TestGroupByTitle_FirstAdequateMatchWins(t *testing.T) {
	t.Parallel()

	// The third title scores 0.8 against the first group and 0.9 against the
	// second; it must land in the first adequate group, not the best one.
	groups, err := GroupByTitle(titled("aaaaabbbbb", "aaaaabbddd", "aaaaabbbdd"), 0.8)
	if err != nil {
		t.Fatalf("GroupByTitle: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if len(groups[0].Incidents) != 2 {
		t.Errorf("first group size = %d, want 2 (first adequate match wins)", len(groups[0].Incidents))
	}
	if len(groups[1].Incidents) != 1 {
		t.Errorf("second group size = %d, want 1", len(groups[1].Incidents))
	}
}

func TestGroupByTitle_ComparesTruncatedPrefixes(t *testing.T) {
	t.Parallel()

	// Identical 20-rune prefixes with wildly different suffixes group together.
	groups, err := GroupByTitle(titled(
		"Database replication lag on shard 7",
		"Database replication completely stopped",
	), 0.9)
	if err != nil {
		t.Fatalf("GroupByTitle: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (prefix comparison)", len(groups))
	}
}

func TestGroupByTitle_EveryIncidentInExactlyOneGroup(t *testing.T) {
	t.Parallel()

	incidents := titled("a", "ab", "xyz", "xy", "a", "completely different")
	groups, err := GroupByTitle(incidents, 0.5)
	if err != nil {
		t.Fatalf("GroupByTitle: %v", err)
	}

	seen := map[uint]int{}
	total := 0
	for _, g := range groups {
		for _, inc := range g.Incidents {
			seen[inc.Number]++
			total++
		}
	}
	if total != len(incidents) {
		t.Errorf("grouped %d incidents, want %d", total, len(incidents))
	}
	for n, count := range seen {
		if count != 1 {
			t.Errorf("incident %d appears in %d groups, want 1", n, count)
		}
	}
}
