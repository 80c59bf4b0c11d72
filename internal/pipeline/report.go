// Package pipeline drives discovered items through their lifecycle and
// orchestrates the per-platform streams of a crawl run.
package pipeline

import "time"

// PlatformReport aggregates one platform's stream outcome.
type PlatformReport struct {
	Platform         string `json:"platform"`
	Discovered       int    `json:"discovered"`
	JudgedRelevant   int    `json:"judged_relevant"`
	JudgedIrrelevant int    `json:"judged_irrelevant"`
	DetailFetched    int    `json:"detail_fetched"`
	Saved            int    `json:"saved"`
	Failed           int    `json:"failed"`

	// SearchErr is set when the platform's search stream ended early.
	// Items already emitted keep their counts.
	SearchErr string `json:"search_error,omitempty"`
}

// RunReport is the aggregated outcome of a crawl run.
type RunReport struct {
	RunID         string           `json:"run_id"`
	Description   string           `json:"description"`
	Keywords      []string         `json:"keywords"`
	KeywordMethod string           `json:"keyword_method,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	Platforms     []PlatformReport `json:"platforms"`
}

// Totals sums the per-platform counters.
func (r *RunReport) Totals() (discovered, relevant, saved, failed int) {
	for _, p := range r.Platforms {
		discovered += p.Discovered
		relevant += p.JudgedRelevant
		saved += p.Saved
		failed += p.Failed
	}
	return discovered, relevant, saved, failed
}

// HasPlatformErrors reports whether any platform stream ended early.
func (r *RunReport) HasPlatformErrors() bool {
	for _, p := range r.Platforms {
		if p.SearchErr != "" {
			return true
		}
	}
	return false
}
