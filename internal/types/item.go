package types

import "time"

// Status tracks an item's progress through the discovery pipeline.
// Transitions only move forward: DISCOVERED -> JUDGED_* -> DETAIL_FETCHED -> SAVED/FAILED.
type Status string

// Pipeline states. JUDGED_IRRELEVANT, SAVED and FAILED are terminal.
const (
	StatusDiscovered       Status = "DISCOVERED"
	StatusJudgedRelevant   Status = "JUDGED_RELEVANT"
	StatusJudgedIrrelevant Status = "JUDGED_IRRELEVANT"
	StatusDetailFetched    Status = "DETAIL_FETCHED"
	StatusSaved            Status = "SAVED"
	StatusFailed           Status = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusJudgedIrrelevant, StatusSaved, StatusFailed:
		return true
	}
	return false
}

// SearchHit is a single raw result from a platform search.
// NativeID is unique within its platform only.
type SearchHit struct {
	Platform        string `json:"platform"`
	NativeID        string `json:"native_id"`
	Title           string `json:"title,omitempty"`
	JudgingContent  string `json:"judging_content"`
	Author          string `json:"author,omitempty"`
	URL             string `json:"url,omitempty"`
	RequiresDetail  bool   `json:"requires_detail"`
	DiscoveredByKey string `json:"discovered_by_keyword,omitempty"`
}

// Comment is a top-level reply collected alongside an item's detail.
type Comment struct {
	NativeID string `json:"comment_id"`
	Author   string `json:"author,omitempty"`
	Content  string `json:"content"`
}

// ItemRecord is the unit persisted to the sink. The sink upserts by
// (Platform, NativeID), so the eager save at discovery and the later
// detail update land on the same logical record.
type ItemRecord struct {
	Platform  string    `json:"platform"`
	NativeID  string    `json:"native_id"`
	RunID     string    `json:"run_id,omitempty"`
	Status    Status    `json:"status"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	URL       string    `json:"url,omitempty"`
	MediaURLs []string  `json:"media_urls,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`

	RelevanceScore  *float64 `json:"relevance_score,omitempty"`
	RelevanceMethod string   `json:"relevance_method,omitempty"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewItemRecord creates the eager-save record for a fresh hit.
// Judgment and detail fields stay empty until those stages run.
func NewItemRecord(hit SearchHit, runID string, now time.Time) *ItemRecord {
	return &ItemRecord{
		Platform:     hit.Platform,
		NativeID:     hit.NativeID,
		RunID:        runID,
		Status:       StatusDiscovered,
		Title:        hit.Title,
		Content:      hit.JudgingContent,
		Author:       hit.Author,
		URL:          hit.URL,
		DiscoveredAt: now,
		UpdatedAt:    now,
	}
}
