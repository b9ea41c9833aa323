package review

// titleSimilarity scores two strings in [0, 1] using normalized
// Damerau-Levenshtein edit distance over runes: 1.0 means identical, 0.0
// maximally different for the compared lengths. Two empty strings are
// identical.
func titleSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(damerauLevenshtein(ra, rb))/float64(longest)
}

// damerauLevenshtein computes the edit distance between two rune slices,
// counting insertions, deletions, substitutions, and transpositions of
// adjacent runes as one edit each.
func damerauLevenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1) // transposition
			}
		}
	}

	return d[len(a)][len(b)]
}
