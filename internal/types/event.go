// Package types defines the shared domain types passed between the crawler's packages.
package types

// Event describes the real-world occurrence driving a crawl run.
// It is created once from user input and is immutable after keyword
// extraction completes.
type Event struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	MaxKeywords int      `json:"max_keywords"`
}
