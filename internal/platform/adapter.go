// Package platform defines the adapter contract the crawler core is written
// against, plus one concrete adapter per supported platform. The orchestrator
// and item pipeline only ever see this interface; everything platform-specific
// (endpoints, payload shapes, rendering) stays behind it.
package platform

import (
	"context"
	"encoding/json"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// Adapter is the fixed capability set a platform must provide.
//
// Search pushes hits through emit in discovery order and stops early when emit
// returns an error, so callers control pacing and cancellation without the
// adapter buffering a full result set.
type Adapter interface {
	// Name returns the platform identifier used in records and reports.
	Name() string

	// RequiresTwoPhase reports whether search results carry only truncated
	// previews, so relevant items need a follow-up GetDetail for full text.
	RequiresTwoPhase() bool

	// Search runs the platform search for each keyword and emits hits as they
	// are discovered. Returning a non-nil error ends this platform's stream.
	Search(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error

	// GetDetail retrieves the complete content for a previously discovered
	// item. Only called for relevant hits on two-phase platforms.
	GetDetail(ctx context.Context, nativeID string) (*Detail, error)

	// Close releases any background resources the adapter holds, such as
	// response caches. The adapter must not be used afterwards.
	Close() error
}

// Detail holds the complete fields retrieved by GetDetail.
type Detail struct {
	Title     string
	Content   string
	Author    string
	URL       string
	MediaURLs []string
	Comments  []types.Comment
}

// Known platform names.
const (
	NameWeibo    = "weibo"
	NameBilibili = "bilibili"
	NameZhihu    = "zhihu"
)

// KnownNames returns the platform names this build ships adapters for.
func KnownNames() []string {
	return []string{NameWeibo, NameBilibili, NameZhihu}
}

func decodeJSON(body string, v any) error {
	return json.Unmarshal([]byte(body), v)
}
