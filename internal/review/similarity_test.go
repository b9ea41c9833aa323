package review

import (
	"math"
	"testing"
)

func TestDamerauLevenshtein(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"abcd", "abdc", 1}, // adjacent transposition is one edit
		{"ca", "abc", 3},
		{"Incident 1", "Incident 2", 1},
		{"héllo", "hello", 1}, // rune-wise, not byte-wise
	}
	for _, tt := range tests {
		got := damerauLevenshtein([]rune(tt.a), []rune(tt.b))
		if got != tt.want {
			t.Errorf("damerauLevenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDamerauLevenshtein_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Incident 1", "Incident 2"},
		{"Another thing entirely", "Another thing entirely 2"},
		{"short", "a much longer title"},
	}
	for _, p := range pairs {
		forward := damerauLevenshtein([]rune(p[0]), []rune(p[1]))
		reverse := damerauLevenshtein([]rune(p[1]), []rune(p[0]))
		if forward != reverse {
			t.Errorf("distance(%q, %q) = %d, but reverse = %d", p[0], p[1], forward, reverse)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"same", "same", 1.0},
		{"Incident 1", "Incident 2", 0.9},
		{"abcd", "efgh", 0.0},
	}
	for _, tt := range tests {
		got := titleSimilarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("titleSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
