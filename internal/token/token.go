// Package token approximates prompt token counts.
//
// The estimate is a heuristic, not a tokenizer: callers should treat it as a
// budget, never as an exact count.
package token

import "strings"

// BytesPerToken is the rough byte-to-token ratio used by Estimate.
const BytesPerToken = 4

// Estimate returns max(ceil(bytes/4), words) for non-empty text and 0 for "".
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	byBytes := (len(text) + BytesPerToken - 1) / BytesPerToken
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	return max(byBytes, words)
}

// Estimator is the signature shared by Estimate and test doubles.
type Estimator func(text string) int

// Truncate returns the first n runes of s, or s when it is shorter.
func Truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
