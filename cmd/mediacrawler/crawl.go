package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sallywang319/myMediaCrawler/internal/config"
	"github.com/Sallywang319/myMediaCrawler/internal/keywords"
	"github.com/Sallywang319/myMediaCrawler/internal/llm"
	"github.com/Sallywang319/myMediaCrawler/internal/observability"
	"github.com/Sallywang319/myMediaCrawler/internal/pipeline"
	"github.com/Sallywang319/myMediaCrawler/internal/platform"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
	"github.com/Sallywang319/myMediaCrawler/internal/store"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run a full discovery-to-persistence crawl for an event",
	Long:  "Extract search keywords from the event description, search every configured platform, judge each hit for relevance, fetch full detail where needed and persist the results, finishing with a run report.",
	RunE:  runCrawl,
}

var (
	crawlDescription   string
	crawlConfigPath    string
	crawlPlatforms     []string
	crawlMaxKeywords   int
	crawlThreshold     float64
	crawlDisableFilter bool
	crawlDataDir       string
	crawlDatabaseURL   string
	crawlAPIKey        string
	crawlItemDelayMS   int
	crawlRetries       int
	crawlVerbose       bool
)

func init() {
	crawlCmd.Flags().StringVarP(&crawlDescription, "description", "d", "", "Event description to crawl for (required unless set in config)")
	crawlCmd.Flags().StringVarP(&crawlConfigPath, "config", "c", "", "Path to JSON config file")
	crawlCmd.Flags().StringSliceVar(&crawlPlatforms, "platforms", nil, "Platforms to crawl (default: all)")
	crawlCmd.Flags().IntVar(&crawlMaxKeywords, "max-keywords", 0, "Maximum number of search keywords")
	crawlCmd.Flags().Float64Var(&crawlThreshold, "threshold", 0, "Relevance threshold in [0,1]")
	crawlCmd.Flags().BoolVar(&crawlDisableFilter, "disable-filter", false, "Persist every hit without relevance filtering")
	crawlCmd.Flags().StringVar(&crawlDataDir, "data-dir", "", "Base directory for the JSON file sink")
	crawlCmd.Flags().StringVar(&crawlDatabaseURL, "db-url", "", "PostgreSQL URL (uses the JSON file sink when empty)")
	crawlCmd.Flags().StringVar(&crawlAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	crawlCmd.Flags().IntVar(&crawlItemDelayMS, "delay-ms", 0, "Delay between items within one platform stream")
	crawlCmd.Flags().IntVar(&crawlRetries, "retries", 0, "Sink write attempts per record")
	crawlCmd.Flags().BoolVarP(&crawlVerbose, "verbose", "v", false, "Print detailed progress")

	rootCmd.AddCommand(crawlCmd)
}

// crawlDefaults are the built-in settings applied under any config file.
var crawlDefaults = config.Config{
	Platforms:   platform.KnownNames(),
	MaxKeywords: keywords.DefaultMaxKeywords,
	Threshold:   relevance.DefaultThreshold,
	ItemDelayMS: int(pipeline.DefaultItemDelay / time.Millisecond),
	Retries:     pipeline.DefaultWriteRetries,
	DataDir:     "data",
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveCrawlConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Description == "" {
		return fmt.Errorf("event description is required (use --description or the config file)")
	}

	// SIGINT aborts all in-flight streams; the eager-saved records survive.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := observability.NewPrinter(os.Stdout)

	client := buildLLMClient(ctx, cfg.APIKey)
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	fmt.Printf("==> Extracting keywords\n")
	extractor := keywords.NewExtractor(client)
	kws, method := extractor.Extract(ctx, cfg.Description, cfg.MaxKeywords)
	if len(kws) == 0 {
		return fmt.Errorf("no keywords could be derived from the description")
	}
	if cfg.Verbose {
		printer.PrintKeywords(kws, string(method))
	}
	event := &types.Event{
		Description: cfg.Description,
		Keywords:    kws,
		MaxKeywords: cfg.MaxKeywords,
	}

	judge := relevance.NewJudge(client,
		relevance.WithThreshold(cfg.Threshold),
		relevance.WithFilterDisabled(cfg.DisableFilter))

	adapters, err := platform.ForNames(cfg.Platforms, cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() {
		for _, adapter := range adapters {
			_ = adapter.Close()
		}
	}()

	sink, pg, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	runID := uuid.NewString()
	if pg != nil {
		id, err := pg.CreateRun(ctx, event.Description, event.Keywords)
		if err != nil {
			return err
		}
		runID = id.String()
	}

	fmt.Printf("==> Crawling %d platform(s)\n", len(adapters))
	orchestrator := pipeline.NewOrchestrator(adapters, judge, sink, crawlPipelineOptions(cfg)...)

	report, runErr := orchestrator.Run(ctx, runID, event)
	report.KeywordMethod = string(method)

	if pg != nil {
		discovered, _, saved, failed := report.Totals()
		status := "completed"
		if runErr != nil {
			status = "cancelled"
		}
		// Persist the final counters even when the run was aborted.
		if err := pg.CompleteRun(context.WithoutCancel(ctx), uuid.MustParse(runID), status, discovered, saved, failed); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record run completion: %v\n", err)
		}
	}

	printer.PrintRunReport(report)

	if runErr != nil {
		return fmt.Errorf("crawl aborted: %w", runErr)
	}
	return nil
}

// crawlPipelineOptions maps the resolved config onto orchestrator options,
// including the sink write retry budget.
func crawlPipelineOptions(cfg *config.Config) []pipeline.OrchestratorOption {
	return []pipeline.OrchestratorOption{
		pipeline.WithItemDelay(time.Duration(cfg.ItemDelayMS) * time.Millisecond),
		pipeline.WithVerbose(cfg.Verbose),
		pipeline.WithProcessorOptions(
			pipeline.WithWriteRetryPolicy(cfg.Retries, pipeline.DefaultWriteBackoff)),
	}
}

// resolveCrawlConfig layers flag values over the config file over built-ins.
// flags distinguishes an explicit zero (a legal threshold or delay) from an
// unset flag, which MergeWithDefaults folds into the defaults.
func resolveCrawlConfig(flags *pflag.FlagSet) (*config.Config, error) {
	flagCfg := config.Config{
		Description:   crawlDescription,
		Platforms:     crawlPlatforms,
		MaxKeywords:   crawlMaxKeywords,
		Threshold:     crawlThreshold,
		DisableFilter: crawlDisableFilter,
		Verbose:       crawlVerbose,
		DataDir:       crawlDataDir,
		DatabaseURL:   crawlDatabaseURL,
		APIKey:        crawlAPIKey,
		ItemDelayMS:   crawlItemDelayMS,
		Retries:       crawlRetries,
	}

	merged := flagCfg
	if crawlConfigPath != "" {
		fileCfg, err := config.LoadConfig(crawlConfigPath)
		if err != nil {
			return nil, err
		}
		merged = merged.MergeWithDefaults(*fileCfg)
		merged.DisableFilter = merged.DisableFilter || fileCfg.DisableFilter
		merged.Verbose = merged.Verbose || fileCfg.Verbose
	}
	merged = merged.MergeWithDefaults(crawlDefaults)

	if flags != nil {
		if flags.Changed("threshold") {
			merged.Threshold = crawlThreshold
		}
		if flags.Changed("delay-ms") {
			merged.ItemDelayMS = crawlItemDelayMS
		}
	}

	if merged.APIKey == "" {
		merged.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if merged.DatabaseURL == "" {
		merged.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// buildLLMClient returns nil when no API key is available; the keyword
// extractor and judge then run on their deterministic fallbacks.
func buildLLMClient(ctx context.Context, apiKey string) llm.Client {
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "Warning: no Gemini API key, using deterministic fallbacks\n")
		return nil
	}
	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: LLM client unavailable (%v), using deterministic fallbacks\n", err)
		return nil
	}
	return client
}

// buildSink picks Postgres when a database URL is configured, the JSON file
// sink otherwise. The second return is non-nil only for Postgres.
func buildSink(ctx context.Context, cfg *config.Config) (store.Sink, *store.PostgresSink, error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	}
	sink, err := store.NewJSONFileSink(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return sink, nil, nil
}
