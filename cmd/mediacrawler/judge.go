package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sallywang319/myMediaCrawler/internal/observability"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Judge a single piece of content against an event description",
	Long:  "Score one piece of content for relevance to an event description, exactly as the crawl pipeline would. Content comes from --content or --file.",
	RunE:  runJudge,
}

var (
	judgeDescription string
	judgeContent     string
	judgeFile        string
	judgePlatform    string
	judgeThreshold   float64
	judgeAPIKey      string
)

func init() {
	judgeCmd.Flags().StringVarP(&judgeDescription, "description", "d", "", "Event description (required)")
	judgeCmd.Flags().StringVar(&judgeContent, "content", "", "Content text to judge")
	judgeCmd.Flags().StringVarP(&judgeFile, "file", "f", "", "Path to a file containing the content")
	judgeCmd.Flags().StringVar(&judgePlatform, "platform", "weibo", "Platform the content came from")
	judgeCmd.Flags().Float64Var(&judgeThreshold, "threshold", relevance.DefaultThreshold, "Relevance threshold in [0,1]")
	judgeCmd.Flags().StringVar(&judgeAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	_ = judgeCmd.MarkFlagRequired("description")

	rootCmd.AddCommand(judgeCmd)
}

func runJudge(_ *cobra.Command, _ []string) error {
	if judgeContent != "" && judgeFile != "" {
		return fmt.Errorf("--content and --file are mutually exclusive")
	}

	content := judgeContent
	if judgeFile != "" {
		data, err := os.ReadFile(judgeFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required (use --content or --file)")
	}

	apiKey := judgeAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	ctx := context.Background()
	client := buildLLMClient(ctx, apiKey)
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	judge := relevance.NewJudge(client, relevance.WithThreshold(judgeThreshold))
	judgment := judge.Judge(ctx, content, judgeDescription, judgePlatform)

	observability.NewPrinter(os.Stdout).PrintJudgment(judgePlatform, "-", judgment)
	return nil
}
