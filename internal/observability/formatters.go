// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sallywang319/myMediaCrawler/internal/pipeline"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintKeywords outputs the extracted search keywords and how they were derived.
func (p *Printer) PrintKeywords(keywords []string, method string) {
	var sb strings.Builder

	for i, keyword := range keywords {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, keyword))
	}
	if len(keywords) == 0 {
		sb.WriteString("(none)\n")
	}
	sb.WriteString(fmt.Sprintf("\nMethod: %s", method))

	p.printBox("SEARCH KEYWORDS", sb.String())
}

// PrintJudgment outputs a single relevance verdict.
func (p *Printer) PrintJudgment(platform, nativeID string, judgment relevance.Judgment) {
	verdict := "IRRELEVANT"
	if judgment.Relevant {
		verdict = "RELEVANT"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Item:    %s/%s\n", platform, nativeID))
	sb.WriteString(fmt.Sprintf("Score:   %.2f (%s)\n", judgment.Score, judgment.Method))
	sb.WriteString(fmt.Sprintf("Verdict: %s", verdict))
	if judgment.Reason != "" {
		sb.WriteString(fmt.Sprintf("\nReason:  %s", judgment.Reason))
	}

	p.printBox("RELEVANCE JUDGMENT", sb.String())
}

// PrintRunReport outputs the aggregated outcome of a crawl run.
func (p *Printer) PrintRunReport(report *pipeline.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run:      %s\n", report.RunID))
	if !report.FinishedAt.IsZero() && !report.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(10*time.Millisecond)))
	}
	sb.WriteString("\n")

	for _, pr := range report.Platforms {
		sb.WriteString(fmt.Sprintf("%s:\n", pr.Platform))
		sb.WriteString(fmt.Sprintf("  discovered %d, relevant %d, saved %d, failed %d\n",
			pr.Discovered, pr.JudgedRelevant, pr.Saved, pr.Failed))
		if pr.SearchErr != "" {
			sb.WriteString(fmt.Sprintf("  search error: %s\n", pr.SearchErr))
		}
	}

	discovered, relevant, saved, failed := report.Totals()
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total: discovered %d, relevant %d, saved %d, failed %d",
		discovered, relevant, saved, failed))

	p.printBox("CRAWL RUN REPORT", sb.String())
}

// PrintItems outputs a short listing of crawled items.
func (p *Printer) PrintItems(items []types.ItemRecord) {
	var sb strings.Builder

	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		sb.WriteString(fmt.Sprintf("• [%s] %s/%s", item.Status, item.Platform, item.NativeID))
		if item.RelevanceScore != nil {
			sb.WriteString(fmt.Sprintf(" (%.2f)", *item.RelevanceScore))
		}
		sb.WriteString("\n")
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(items)-maxItemsToShow))
	}
	if len(items) == 0 {
		sb.WriteString("(none)\n")
	}

	p.printBox("CRAWLED ITEMS", strings.TrimRight(sb.String(), "\n"))
}
