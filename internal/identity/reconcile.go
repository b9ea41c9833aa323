package identity

import "strings"

// Stats summarizes a reconciliation pass for observability. The caller
// decides what to do with it (log it, export it); the reconciler itself
// stays pure.
type Stats struct {
	NotionPeople int // people walked
	Matched      int // identities with both sides
	NotionOnly   int // identities with no Slack match
	WithoutEmail int // Notion people that could never match
}

// NormalizeEmail prepares an email address for comparison by trimming
// surrounding whitespace and lowercasing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailsMatch(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}

// Reconcile merges the two directory listings into unified identities, one
// per Notion person. A Notion person with an email is linked to the first
// Slack user whose profile email matches after normalization; directory
// emails are assumed unique so no tie-break is needed. People without an
// email yield Notion-only identities. Slack users that match no Notion
// person do not appear in the output: POC candidates must exist in Notion.
func Reconcile(slackUsers []SlackUser, notionPeople []NotionPerson) ([]Identity, Stats) {
	stats := Stats{NotionPeople: len(notionPeople)}
	identities := make([]Identity, 0, len(notionPeople))

	for i := range notionPeople {
		np := &notionPeople[i]

		var slack *SlackUser
		if email := np.Email(); email != "" {
			for j := range slackUsers {
				su := &slackUsers[j]
				if su.Email() != "" && emailsMatch(email, su.Email()) {
					slack = su
					break
				}
			}
		} else {
			stats.WithoutEmail++
		}

		id, ok := New(slack, np)
		if !ok {
			continue
		}
		if slack != nil {
			stats.Matched++
		} else {
			stats.NotionOnly++
		}
		identities = append(identities, id)
	}

	return identities, stats
}
