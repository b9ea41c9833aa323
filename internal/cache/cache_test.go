package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type entry struct {
	Name string `json:"name"`
}

func TestPutAndGet(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir(), time.Hour)

	if err := c.Put("users.json", []entry{{Name: "alice"}, {Name: "bob"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got []entry
	ok, err := c.Get("users.json", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a fresh hit")
	}
	if len(got) != 2 || got[0].Name != "alice" {
		t.Errorf("got = %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir(), time.Hour)

	var got []entry
	ok, err := c.Get("never-written.json", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for an unwritten key")
	}
}

func TestGetStale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir, time.Hour)

	if err := c.Put("users.json", []entry{{Name: "alice"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Age the entry past the TTL.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "users.json"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	var got []entry
	ok, err := c.Get("users.json", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for a stale entry")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir, 0)

	if err := c.Put("users.json", []entry{{Name: "alice"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	old := time.Now().Add(-24 * 365 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "users.json"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	var got []entry
	ok, err := c.Get("users.json", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit with zero TTL")
	}
}

func TestPutCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c := New(dir, time.Hour)

	if err := c.Put("users.json", []entry{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "users.json")); err != nil {
		t.Errorf("entry file missing: %v", err)
	}
}

func TestGetCorruptEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir, time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var got []entry
	if _, err := c.Get("users.json", &got); err == nil {
		t.Fatal("expected an error for a corrupt entry")
	}
}
