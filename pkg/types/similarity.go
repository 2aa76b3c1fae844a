package types

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Edit costs for Distance. A substitution costs the same as a deletion
// followed by an insertion.
const (
	insertCost     = 1
	deleteCost     = 1
	substituteCost = 2
)

// Similarity is the result of comparing two labels.
type Similarity struct {
	// EditCount is the weighted Levenshtein distance between the labels.
	EditCount int

	// Ratio is (m+n-EditCount)/(m+n) where m and n are the label lengths in
	// runes after case folding. 1.0 means identical. Not clamped.
	Ratio float64
}

// fold upper-cases s for comparison. A Caser is stateful, so one is built per
// call to keep Distance safe for concurrent use.
func fold(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Distance compares two labels case-insensitively.
//
// If either label is empty the result is {0, 0}: empty labels never match
// anything, including each other.
func Distance(a, b string) Similarity {
	if a == "" || b == "" {
		return Similarity{}
	}
	r1 := []rune(fold(a))
	r2 := []rune(fold(b))
	m, n := len(r1), len(r2)

	// Two rolling rows of the (m+1)x(n+1) table; prev is row i-1.
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j * insertCost
	}
	for i := 1; i <= m; i++ {
		curr[0] = i * deleteCost
		for j := 1; j <= n; j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(
				prev[j]+deleteCost,
				curr[j-1]+insertCost,
				prev[j-1]+substituteCost,
			)
		}
		prev, curr = curr, prev
	}

	edits := prev[n]
	total := float64(m + n)
	return Similarity{
		EditCount: edits,
		Ratio:     (total - float64(edits)) / total,
	}
}
