// Package relevance scores candidate content against an event description
// and converts the score into a binary verdict. The primary path asks an
// LLM for a numeric score; a deterministic overlap heuristic takes over
// whenever the model is unavailable or returns an unusable response.
package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Sallywang319/myMediaCrawler/internal/llm"
	"github.com/Sallywang319/myMediaCrawler/internal/prompts"
	"github.com/Sallywang319/myMediaCrawler/internal/schemas"
)

// Method records which path produced a score.
type Method string

// Judgment methods.
const (
	MethodLLM      Method = "llm"
	MethodFallback Method = "fallback"
	MethodDisabled Method = "disabled"
)

// DefaultThreshold is the original's relevance score cutoff.
const DefaultThreshold = 0.5

// MinContentLength is the shortest content worth judging. Anything shorter
// is scored 0 without a model call.
const MinContentLength = 10

// MaxContentLength caps content embedded in the judgment prompt.
const MaxContentLength = 1000

// Judgment is the outcome of scoring one piece of content.
// Relevant is true iff Score >= the configured threshold (inclusive).
type Judgment struct {
	Score    float64 `json:"score"`
	Relevant bool    `json:"relevant"`
	Method   Method  `json:"method"`
	Reason   string  `json:"reason,omitempty"`
}

// relevanceResponse is the expected JSON response from the LLM.
type relevanceResponse struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Judge scores content against an event description.
type Judge struct {
	client    llm.Client
	threshold float64
	disabled  bool
}

// Option customizes a Judge.
type Option func(*Judge)

// WithThreshold overrides the relevance threshold.
func WithThreshold(threshold float64) Option {
	return func(j *Judge) { j.threshold = threshold }
}

// WithFilterDisabled makes every judgment relevant without calling either
// scoring path. Used for debugging and broad collection.
func WithFilterDisabled(disabled bool) Option {
	return func(j *Judge) { j.disabled = disabled }
}

// NewJudge creates a Judge backed by the given LLM client. A nil client
// always scores with the fallback heuristic.
func NewJudge(client llm.Client, opts ...Option) *Judge {
	j := &Judge{client: client, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Threshold returns the configured relevance threshold.
func (j *Judge) Threshold() float64 {
	return j.threshold
}

// Judge scores content from the named platform against the event
// description. It never returns an error for recoverable model failures;
// those degrade to the deterministic fallback.
func (j *Judge) Judge(ctx context.Context, content, description, platform string) Judgment {
	if j.disabled {
		return Judgment{Score: 1.0, Relevant: true, Method: MethodDisabled, Reason: "relevance filter disabled"}
	}

	if len([]rune(strings.TrimSpace(content))) < MinContentLength {
		return Judgment{Score: 0, Relevant: j.verdict(0), Method: MethodFallback, Reason: "content too short to judge"}
	}

	content = llm.TruncateForPrompt(content, MaxContentLength)

	if j.client != nil {
		judgment, err := j.judgeWithLLM(ctx, content, description, platform)
		if err == nil {
			return judgment
		}
		log.Printf("relevance judgment falling back to heuristic (%s): %v", llm.KindOf(err), err)
	}

	score := FallbackScore(content, description)
	return Judgment{
		Score:    score,
		Relevant: j.verdict(score),
		Method:   MethodFallback,
		Reason:   "keyword overlap heuristic",
	}
}

func (j *Judge) judgeWithLLM(ctx context.Context, content, description, platform string) (Judgment, error) {
	template := prompts.MustGet("crawler.json", "judge-relevance")
	prompt := prompts.Format(template, map[string]string{
		"Description": description,
		"Content":     content,
		"Platform":    platform,
	})

	jsonResp, err := j.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return Judgment{}, llm.WrapCallError(err)
	}

	jsonResp = llm.CleanJSONBlock(jsonResp)

	if err := schemas.Validate(schemas.RelevanceResponse, jsonResp); err != nil {
		return Judgment{}, &llm.CallError{Kind: llm.KindMalformed, Message: "relevance response failed schema validation", Cause: err}
	}

	var response relevanceResponse
	if err := json.Unmarshal([]byte(jsonResp), &response); err != nil {
		return Judgment{}, &llm.CallError{Kind: llm.KindMalformed, Message: fmt.Sprintf("failed to parse relevance response (content: %s)", jsonResp), Cause: err}
	}

	score := clamp(response.Score)
	return Judgment{
		Score:    score,
		Relevant: j.verdict(score),
		Method:   MethodLLM,
		Reason:   response.Reason,
	}, nil
}

// verdict applies the inclusive threshold comparison uniformly for both
// scoring paths.
func (j *Judge) verdict(score float64) bool {
	return score >= j.threshold
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
