package identity

import "testing"

func slackUser(id, name, email string) SlackUser {
	u := SlackUser{ID: id, Name: name}
	if email != "" {
		u.Profile = &SlackProfile{Email: email}
	}
	return u
}

func notionPerson(id, name, email string) NotionPerson {
	p := NotionPerson{Object: "user", ID: id, Name: name}
	if email != "" {
		p.Person = &NotionPersonDetails{Email: email}
	}
	return p
}

func TestReconcile_MatchesByEmail(t *testing.T) {
	t.Parallel()

	slack := []SlackUser{
		slackUser("U1", "alice", "alice@example.com"),
		slackUser("U2", "bob", "bob@example.com"),
	}
	notion := []NotionPerson{
		notionPerson("N1", "Bob B", "bob@example.com"),
	}

	ids, stats := Reconcile(slack, notion)

	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].Slack == nil || ids[0].Slack.ID != "U2" {
		t.Errorf("expected Slack side U2, got %+v", ids[0].Slack)
	}
	if ids[0].Notion == nil || ids[0].Notion.ID != "N1" {
		t.Errorf("expected Notion side N1, got %+v", ids[0].Notion)
	}
	if stats.Matched != 1 || stats.NotionOnly != 0 {
		t.Errorf("stats = %+v, want Matched=1 NotionOnly=0", stats)
	}
}

func TestReconcile_EmailNormalization(t *testing.T) {
	t.Parallel()

	slack := []SlackUser{slackUser("U1", "bob", "bob@example.com ")}
	notion := []NotionPerson{notionPerson("N1", "Bob", " Bob@Example.com")}

	ids, stats := Reconcile(slack, notion)

	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].Slack == nil {
		t.Fatal("expected email match despite case and whitespace differences")
	}
	if stats.Matched != 1 {
		t.Errorf("stats.Matched = %d, want 1", stats.Matched)
	}
}

func TestReconcile_NotionPersonWithoutEmail(t *testing.T) {
	t.Parallel()

	slack := []SlackUser{slackUser("U1", "alice", "alice@example.com")}
	notion := []NotionPerson{notionPerson("N1", "Mystery", "")}

	ids, stats := Reconcile(slack, notion)

	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].Slack != nil {
		t.Error("person without email must never match a Slack user")
	}
	if ids[0].Notion == nil {
		t.Error("expected Notion side to be populated")
	}
	if stats.WithoutEmail != 1 || stats.NotionOnly != 1 {
		t.Errorf("stats = %+v, want WithoutEmail=1 NotionOnly=1", stats)
	}
}

func TestReconcile_SlackOnlyUsersInvisible(t *testing.T) {
	t.Parallel()

	slack := []SlackUser{slackUser("U1", "alice", "alice@example.com")}

	ids, stats := Reconcile(slack, nil)

	if len(ids) != 0 {
		t.Fatalf("identities = %d, want 0 (reconciliation walks the Notion list)", len(ids))
	}
	if stats.NotionPeople != 0 {
		t.Errorf("stats.NotionPeople = %d, want 0", stats.NotionPeople)
	}
}

func TestReconcile_SlackUserWithoutProfile(t *testing.T) {
	t.Parallel()

	slack := []SlackUser{
		{ID: "U1", Name: "botuser"}, // no profile at all
		slackUser("U2", "carol", "carol@example.com"),
	}
	notion := []NotionPerson{notionPerson("N1", "Carol", "carol@example.com")}

	ids, _ := Reconcile(slack, notion)

	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].Slack == nil || ids[0].Slack.ID != "U2" {
		t.Errorf("expected U2 to match, got %+v", ids[0].Slack)
	}
}

func TestNew_BothSidesAbsent(t *testing.T) {
	t.Parallel()

	if _, ok := New(nil, nil); ok {
		t.Fatal("New(nil, nil) must yield no identity")
	}
}

func TestIdentity_SystemPresence(t *testing.T) {
	t.Parallel()

	su := slackUser("U1", "alice", "alice@example.com")
	np := notionPerson("N1", "Alice", "alice@example.com")

	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"both", Identity{Slack: &su, Notion: &np}, "Slack & Notion"},
		{"slack only", Identity{Slack: &su}, "Slack"},
		{"notion only", Identity{Notion: &np}, "Notion"},
	}
	for _, tt := range tests {
		if got := tt.id.SystemPresence(); got != tt.want {
			t.Errorf("%s: SystemPresence() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIdentity_String(t *testing.T) {
	t.Parallel()

	su := slackUser("U1", "alice", "alice@example.com")
	id := Identity{Slack: &su}

	want := "alice (alice@example.com) [Slack]"
	if got := id.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	np := notionPerson("N1", "Mystery", "")
	id = Identity{Notion: &np}
	if got := id.String(); got != "Mystery [Notion]" {
		t.Errorf("String() = %q, want %q", got, "Mystery [Notion]")
	}
}
