// Package keywords - fallback.go provides the deterministic non-LLM keyword
// heuristic used when the model service is unavailable.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are excluded from fallback keyword candidates. The list covers
// common English function words plus the connective particles the original
// event descriptions tend to carry.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "which": true, "with": true, "will": true,
	"的": true, "了": true, "和": true, "与": true, "在": true, "是": true,
	"请": true, "帮": true, "我": true, "该": true, "等": true,
}

// FallbackKeywords derives up to max keywords from a description without any
// model call. It is a pure function: identical input always yields identical
// output, ordered by token frequency with first-occurrence tiebreak.
func FallbackKeywords(description string, max int) []string {
	if max <= 0 {
		max = DefaultMaxKeywords
	}

	tokens := tokenize(description)
	if len(tokens) == 0 {
		return nil
	}

	type candidate struct {
		token string
		count int
		first int
	}

	index := make(map[string]*candidate)
	var order []*candidate
	for i, tok := range tokens {
		if c, ok := index[tok]; ok {
			c.count++
			continue
		}
		c := &candidate{token: tok, count: 1, first: i}
		index[tok] = c
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	var out []string
	for _, c := range order {
		out = append(out, c.token)
		if len(out) >= max {
			break
		}
	}
	return out
}

// tokenize splits text into lowercase letter/digit runs, dropping stopwords
// and single-character latin tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		if len([]rune(f)) < 2 && f[0] < 0x80 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
