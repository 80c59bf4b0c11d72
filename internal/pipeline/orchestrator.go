package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sallywang319/myMediaCrawler/internal/platform"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
	"github.com/Sallywang319/myMediaCrawler/internal/store"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// DefaultItemDelay paces consecutive items within one platform stream.
const DefaultItemDelay = 300 * time.Millisecond

// Orchestrator fans a keyword set out to the platform adapters and runs each
// platform's hit stream through the item pipeline. Platforms progress in
// parallel; within one stream items are processed strictly in discovery order.
type Orchestrator struct {
	adapters  []platform.Adapter
	judge     *relevance.Judge
	sink      store.Sink
	itemDelay time.Duration
	verbose   bool

	processorOpts []ProcessorOption
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithItemDelay overrides the per-item pacing delay.
func WithItemDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.itemDelay = d }
}

// WithVerbose enables per-item logging.
func WithVerbose(verbose bool) OrchestratorOption {
	return func(o *Orchestrator) { o.verbose = verbose }
}

// WithProcessorOptions forwards options to the per-run item processors.
// Repeated uses accumulate.
func WithProcessorOptions(opts ...ProcessorOption) OrchestratorOption {
	return func(o *Orchestrator) { o.processorOpts = append(o.processorOpts, opts...) }
}

// NewOrchestrator wires the adapters, judge and sink for crawl runs.
func NewOrchestrator(adapters []platform.Adapter, judge *relevance.Judge, sink store.Sink, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		adapters:  adapters,
		judge:     judge,
		sink:      sink,
		itemDelay: DefaultItemDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one crawl for the given event: every adapter searches the
// event's keywords, each hit is judged, fetched and saved in stream order. A
// platform whose search fails is recorded in the report and does not disturb
// the other platforms. The returned error is non-nil only for run-level
// cancellation.
func (o *Orchestrator) Run(ctx context.Context, runID string, event *types.Event) (*RunReport, error) {
	report := &RunReport{
		RunID:       runID,
		Description: event.Description,
		Keywords:    event.Keywords,
		StartedAt:   time.Now(),
		Platforms:   make([]PlatformReport, len(o.adapters)),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for i, adapter := range o.adapters {
		adapter := adapter
		platformReport := &report.Platforms[i]
		platformReport.Platform = adapter.Name()

		group.Go(func() error {
			err := o.runStream(groupCtx, adapter, event, runID, platformReport)
			if err == nil {
				return nil
			}
			// Cancellation propagates and stops the whole run; anything
			// else is a platform-level failure that must not take the
			// other streams down with it.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("[PIPELINE] %s stream ended early: %v", adapter.Name(), err)
			platformReport.SearchErr = err.Error()
			return nil
		})
	}

	err := group.Wait()
	report.FinishedAt = time.Now()
	if err != nil {
		return report, err
	}
	return report, nil
}

// runStream processes one platform's hits in discovery order.
func (o *Orchestrator) runStream(ctx context.Context, adapter platform.Adapter, event *types.Event, runID string, platformReport *PlatformReport) error {
	processor := NewItemProcessor(o.judge, o.sink, event.Description, runID, o.processorOpts...)

	first := true
	return adapter.Search(ctx, event.Keywords, func(hit types.SearchHit) error {
		if !first && o.itemDelay > 0 {
			if err := sleepContext(ctx, o.itemDelay); err != nil {
				return err
			}
		}
		first = false

		platformReport.Discovered++

		outcome, err := processor.Process(ctx, adapter, hit)
		if err != nil {
			return err
		}

		if outcome.Relevant {
			platformReport.JudgedRelevant++
		}
		if outcome.DetailFetched {
			platformReport.DetailFetched++
		}
		switch outcome.Status {
		case types.StatusJudgedIrrelevant:
			platformReport.JudgedIrrelevant++
		case types.StatusSaved:
			platformReport.Saved++
		case types.StatusFailed:
			platformReport.Failed++
		}

		if o.verbose {
			log.Printf("[PIPELINE] %s/%s -> %s", hit.Platform, hit.NativeID, outcome.Status)
		}
		return nil
	})
}
