package review

import (
	"fmt"

	"github.com/oncallops/revu/internal/incident"
)

// titleComparePrefix bounds the similarity comparison: duplicate incident
// titles share an informative prefix even when suffixes diverge with
// timestamps or sub-details.
const titleComparePrefix = 20

// Group is a cluster of incidents whose titles were judged near-duplicate.
// Title is the representative: the untruncated title of the first incident
// placed in the group.
type Group struct {
	Title     string
	Incidents []incident.Incident
}

// GroupByTitle clusters incidents by fuzzy title similarity. The pass is
// greedy and single-shot: each incident, in input order, joins the first
// existing group whose representative title scores at or above threshold on
// the truncated comparison, or founds a new group. Groups are held in an
// ordered slice so "first adequate match" is deterministic and membership
// is never revisited. A threshold outside [0, 1] is a configuration error.
func GroupByTitle(incidents []incident.Incident, threshold float64) ([]Group, error) {
	if threshold < 0.0 || threshold > 1.0 {
		return nil, fmt.Errorf("similarity threshold %v out of range [0.0, 1.0]", threshold)
	}

	var groups []Group
	for _, inc := range incidents {
		idx := -1
		for g := range groups {
			score := titleSimilarity(
				truncateRunes(inc.Title, titleComparePrefix),
				truncateRunes(groups[g].Title, titleComparePrefix),
			)
			if score >= threshold {
				idx = g
				break
			}
		}
		if idx >= 0 {
			groups[idx].Incidents = append(groups[idx].Incidents, inc)
			continue
		}
		groups = append(groups, Group{Title: inc.Title, Incidents: []incident.Incident{inc}})
	}

	return groups, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
