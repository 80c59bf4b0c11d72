package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sallywang319/myMediaCrawler/internal/keywords"
	"github.com/Sallywang319/myMediaCrawler/internal/observability"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Extract search keywords from an event description",
	Long:  "Derive the search keywords a crawl would use for the given event description, without running any platform searches.",
	RunE:  runKeywords,
}

var (
	keywordsDescription string
	keywordsMax         int
	keywordsAPIKey      string
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsDescription, "description", "d", "", "Event description (required)")
	keywordsCmd.Flags().IntVar(&keywordsMax, "max-keywords", keywords.DefaultMaxKeywords, "Maximum number of keywords")
	keywordsCmd.Flags().StringVar(&keywordsAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	_ = keywordsCmd.MarkFlagRequired("description")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(_ *cobra.Command, _ []string) error {
	apiKey := keywordsAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	ctx := context.Background()
	client := buildLLMClient(ctx, apiKey)
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	extractor := keywords.NewExtractor(client)
	kws, method := extractor.Extract(ctx, keywordsDescription, keywordsMax)
	if len(kws) == 0 {
		return fmt.Errorf("no keywords could be derived from the description")
	}

	observability.NewPrinter(os.Stdout).PrintKeywords(kws, string(method))
	return nil
}
