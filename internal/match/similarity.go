package match

import (
	"sort"
	"strings"
)

// Similarity computes a bounded [0,1] similarity between two raw titles.
// Both inputs are normalized first, then scored with a token-set ratio:
// reordering of clauses and added/dropped filler words barely move the
// score, which is what cross-site market titles need ("Will X win the 2024
// election?" vs "X wins 2024 election"). Character-level edit distance has
// neither property.
//
// The function is symmetric, and reflexive at exactly 1.0 for any input
// with at least one token. A side with no tokens scores 0.
func Similarity(a, b string) float64 {
	return tokenSetRatio(Normalize(a), Normalize(b)) / 100.0
}

// tokenSetRatio scores two normalized strings in [0,100]. Each string is
// reduced to its set of unique whitespace tokens; the sorted intersection
// and the two sorted full reconstructions are compared pairwise with an
// indel ratio and the maximum wins. Shared tokens therefore dominate, and
// tokens unique to one side only dilute the score in proportion to their
// length.
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var sect, diffA, diffB []string
	for _, t := range tokensA {
		if contains(tokensB, t) {
			sect = append(sect, t)
		} else {
			diffA = append(diffA, t)
		}
	}
	for _, t := range tokensB {
		if !contains(tokensA, t) {
			diffB = append(diffB, t)
		}
	}

	joined := strings.Join(sect, " ")
	combinedA := joinNonEmpty(joined, strings.Join(diffA, " "))
	combinedB := joinNonEmpty(joined, strings.Join(diffB, " "))

	// One token set contained in the other is a perfect match under
	// set semantics.
	if len(sect) > 0 && (len(diffA) == 0 || len(diffB) == 0) {
		return 100
	}

	score := indelRatio(joined, combinedA)
	if r := indelRatio(joined, combinedB); r > score {
		score = r
	}
	if r := indelRatio(combinedA, combinedB); r > score {
		score = r
	}
	return score
}

// tokenSet splits s on whitespace and returns the unique tokens sorted.
func tokenSet(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// contains reports whether sorted slice ts holds t.
func contains(ts []string, t string) bool {
	i := sort.SearchStrings(ts, t)
	return i < len(ts) && ts[i] == t
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// indelRatio is the insert/delete normalized similarity of two strings in
// [0,100]: (lenA + lenB - dist) / (lenA + lenB) * 100, where dist is the
// minimum number of rune insertions and deletions turning a into b
// (lenA + lenB - 2*LCS). Two empty strings score 100.
func indelRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcsLength(ra, rb)
	return float64(total-dist) / float64(total) * 100
}

// lcsLength computes the longest-common-subsequence length with a
// two-row DP table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
