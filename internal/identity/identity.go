// Package identity reconciles person records from the two directories the
// review tool talks to (Slack and Notion) into unified identities linked by
// email.
package identity

import (
	"fmt"
	"strings"
)

// SlackProfile is the profile sub-record of a Slack user. Email may be empty
// for bot and deactivated accounts.
type SlackProfile struct {
	Email string `json:"email,omitempty"`
}

// SlackUser is a member of the Slack workspace as returned by users.list.
type SlackUser struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Profile *SlackProfile `json:"profile,omitempty"`
}

// Email returns the user's profile email, or "" when the profile or the
// email is absent.
func (u SlackUser) Email() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Email
}

// NotionPersonDetails carries the email of a Notion person. Notion only
// exposes it for real people, not integration users.
type NotionPersonDetails struct {
	Email string `json:"email"`
}

// NotionPerson is a user object from the Notion users API.
type NotionPerson struct {
	Object    string               `json:"object,omitempty"`
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	AvatarURL string               `json:"avatar_url,omitempty"`
	Person    *NotionPersonDetails `json:"person,omitempty"`
}

// Email returns the person's email, or "" when Notion does not expose one.
func (p NotionPerson) Email() string {
	if p.Person == nil {
		return ""
	}
	return p.Person.Email
}

// Identity is a person known to at least one of the two directories.
type Identity struct {
	Slack  *SlackUser    `json:"slack_user,omitempty"`
	Notion *NotionPerson `json:"notion_user,omitempty"`
}

// New builds an Identity from the two directory sides. An identity with
// neither side is not an error, it is simply no identity: ok is false and
// the caller skips it.
func New(slack *SlackUser, notion *NotionPerson) (Identity, bool) {
	if slack == nil && notion == nil {
		return Identity{}, false
	}
	return Identity{Slack: slack, Notion: notion}, true
}

// SystemPresence names the directories this identity was found in, e.g.
// "Slack & Notion".
func (id Identity) SystemPresence() string {
	var systems []string
	if id.Slack != nil {
		systems = append(systems, "Slack")
	}
	if id.Notion != nil {
		systems = append(systems, "Notion")
	}
	return strings.Join(systems, " & ")
}

// DisplayName prefers the Slack handle with its email, falling back to the
// Notion display name.
func (id Identity) DisplayName() string {
	if id.Slack != nil {
		if email := id.Slack.Email(); email != "" {
			return fmt.Sprintf("%s (%s)", id.Slack.Name, email)
		}
		return id.Slack.Name
	}
	if id.Notion != nil {
		return id.Notion.Name
	}
	return ""
}

// String renders the identity for selection lists: name plus the systems it
// exists in.
func (id Identity) String() string {
	return fmt.Sprintf("%s [%s]", id.DisplayName(), id.SystemPresence())
}
