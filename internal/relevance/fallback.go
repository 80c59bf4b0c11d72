// Package relevance - fallback.go provides the deterministic overlap score
// used when the model service is unavailable.
package relevance

import (
	"strings"
	"unicode"
)

// FallbackScore computes a bounded overlap score between content and the
// event description: the fraction of the description's unique tokens that
// also appear in the content. It is a pure function of its inputs.
func FallbackScore(content, description string) float64 {
	descTokens := tokenSet(description)
	if len(descTokens) == 0 {
		return 0
	}

	contentTokens := tokenSet(content)
	contentLower := strings.ToLower(content)

	matched := 0
	for tok := range descTokens {
		// Substring presence catches CJK tokens that segment differently
		// between the description and the content.
		if contentTokens[tok] || strings.Contains(contentLower, tok) {
			matched++
		}
	}

	score := float64(matched) / float64(len(descTokens))
	if score > 1 {
		score = 1
	}
	return score
}

func tokenSet(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
