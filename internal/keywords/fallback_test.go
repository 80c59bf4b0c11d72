package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackKeywords_Deterministic(t *testing.T) {
	description := "Company X launches product Y, sparking backlash against Company X"

	first := FallbackKeywords(description, 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FallbackKeywords(description, 5))
	}
}

func TestFallbackKeywords_FrequencyOrdering(t *testing.T) {
	// "launch" appears twice, everything else once
	kws := FallbackKeywords("launch review launch analysis", 3)
	assert.Equal(t, []string{"launch", "review", "analysis"}, kws)
}

func TestFallbackKeywords_FirstOccurrenceTiebreak(t *testing.T) {
	kws := FallbackKeywords("alpha beta gamma", 3)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, kws)
}

func TestFallbackKeywords_StopwordsFiltered(t *testing.T) {
	kws := FallbackKeywords("the company and the product in the market", 5)
	assert.Equal(t, []string{"company", "product", "market"}, kws)
}

func TestFallbackKeywords_MaxRespected(t *testing.T) {
	kws := FallbackKeywords("one1 two2 three3 four4 five5 six6", 2)
	assert.Len(t, kws, 2)
}

func TestFallbackKeywords_Empty(t *testing.T) {
	assert.Empty(t, FallbackKeywords("", 5))
	assert.Empty(t, FallbackKeywords("a ! ?", 5))
}

func TestFallbackKeywords_CJKTokens(t *testing.T) {
	// Punctuation splits CJK phrases into candidate runs
	kws := FallbackKeywords("某科技公司发布新手机，引发广泛讨论。", 5)
	assert.Contains(t, kws, "某科技公司发布新手机")
	assert.Contains(t, kws, "引发广泛讨论")
}
