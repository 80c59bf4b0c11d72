package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sallywang319/myMediaCrawler/internal/observability"
	"github.com/Sallywang319/myMediaCrawler/internal/store"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <records.json> [more records.json ...]",
	Short: "Merge record files from separate runs into one deduplicated file",
	Long:  "Combine crawled-item record files, deduplicating by platform and native ID. For duplicates the record that progressed further through the pipeline wins.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMerge,
}

var (
	mergeOutput       string
	mergeRelevantOnly bool
	mergeVerbose      bool
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "merged.json", "Output file path")
	mergeCmd.Flags().BoolVar(&mergeRelevantOnly, "relevant-only", false, "Keep only items that completed as saved")
	mergeCmd.Flags().BoolVarP(&mergeVerbose, "verbose", "v", false, "List the merged items")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(_ *cobra.Command, args []string) error {
	sets := make([][]types.ItemRecord, 0, len(args))
	total := 0
	for _, path := range args {
		records, err := store.ReadRecords(path)
		if err != nil {
			return err
		}
		sets = append(sets, records)
		total += len(records)
	}

	merged := store.MergeRecords(sets...)
	if mergeRelevantOnly {
		merged = store.FilterRelevant(merged)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal merged records: %w", err)
	}
	if err := os.WriteFile(mergeOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mergeOutput, err)
	}

	fmt.Printf("Merged %d records from %d file(s) into %d\n", total, len(args), len(merged))
	fmt.Printf("Output: %s\n", mergeOutput)
	if mergeVerbose {
		observability.NewPrinter(os.Stdout).PrintItems(merged)
	}
	return nil
}
