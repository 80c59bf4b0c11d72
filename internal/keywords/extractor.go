// Package keywords turns an event description into an ordered set of search
// keywords, using an LLM with a deterministic heuristic fallback.
package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Sallywang319/myMediaCrawler/internal/llm"
	"github.com/Sallywang319/myMediaCrawler/internal/prompts"
	"github.com/Sallywang319/myMediaCrawler/internal/schemas"
)

// Method records which path produced a keyword set.
type Method string

// Extraction methods.
const (
	MethodLLM      Method = "llm"
	MethodFallback Method = "fallback"
)

// DefaultMaxKeywords matches the original keyword budget per event.
const DefaultMaxKeywords = 5

// keywordsResponse is the expected JSON response from the LLM.
type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// Extractor derives search keywords from an event description.
// A nil client always uses the fallback heuristic.
type Extractor struct {
	client llm.Client
}

// NewExtractor creates an Extractor backed by the given LLM client.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract returns up to maxKeywords unique keywords in first-seen order.
// Recoverable model failures (timeout, auth, malformed response) degrade to
// the deterministic fallback and are never surfaced to the caller. An empty
// description yields an empty set.
func (e *Extractor) Extract(ctx context.Context, description string, maxKeywords int) ([]string, Method) {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	if strings.TrimSpace(description) == "" {
		return nil, MethodFallback
	}

	if e.client == nil {
		return FallbackKeywords(description, maxKeywords), MethodFallback
	}

	extracted, err := e.extractWithLLM(ctx, description, maxKeywords)
	if err != nil {
		log.Printf("keyword extraction falling back to heuristic (%s): %v", llm.KindOf(err), err)
		return FallbackKeywords(description, maxKeywords), MethodFallback
	}

	return extracted, MethodLLM
}

func (e *Extractor) extractWithLLM(ctx context.Context, description string, maxKeywords int) ([]string, error) {
	template := prompts.MustGet("crawler.json", "extract-keywords")
	prompt := prompts.Format(template, map[string]string{
		"Description": description,
		"MaxKeywords": strconv.Itoa(maxKeywords),
	})

	jsonResp, err := e.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, llm.WrapCallError(err)
	}

	jsonResp = llm.CleanJSONBlock(jsonResp)

	if err := schemas.Validate(schemas.KeywordsResponse, jsonResp); err != nil {
		return nil, &llm.CallError{Kind: llm.KindMalformed, Message: "keywords response failed schema validation", Cause: err}
	}

	var response keywordsResponse
	if err := json.Unmarshal([]byte(jsonResp), &response); err != nil {
		return nil, &llm.CallError{Kind: llm.KindMalformed, Message: fmt.Sprintf("failed to parse keywords response (content: %s)", jsonResp), Cause: err}
	}

	extracted := Dedupe(response.Keywords, maxKeywords)
	if len(extracted) == 0 {
		return nil, &llm.CallError{Kind: llm.KindMalformed, Message: "keywords response contained no usable keywords"}
	}

	return extracted, nil
}

// Dedupe removes duplicate and blank keywords, preserving first-seen order,
// and truncates the result to max entries.
func Dedupe(raw []string, max int) []string {
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
