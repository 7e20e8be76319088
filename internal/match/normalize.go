// Package match implements the cross-site market matching core: title
// normalization, token-set similarity scoring, greedy clustering, and the
// flat-row serialization of the resulting unified products.
//
// The whole package is pure in-memory computation: no I/O, no goroutines,
// no shared state between calls.
package match

import "strings"

// punctuation lists the characters replaced by a space during
// normalization. Replaced rather than removed so "win?(2024)" cannot fuse
// into a single token.
const punctuation = "?!,.:;()[]"

// Normalize canonicalizes a title for comparison: lower-case, trimmed,
// punctuation replaced with spaces, and space runs collapsed to a single
// space. It is a total function; an empty input yields an empty output.
//
// Deliberately shallow: no stop-word removal, no stemming, no Unicode
// normalization beyond case folding. It only needs to be a consistent
// preprocessing step.
func Normalize(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, t)
	for strings.Contains(t, "  ") {
		t = strings.ReplaceAll(t, "  ", " ")
	}
	return strings.TrimSpace(t)
}
