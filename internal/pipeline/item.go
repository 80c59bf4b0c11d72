package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/Sallywang319/myMediaCrawler/internal/platform"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
	"github.com/Sallywang319/myMediaCrawler/internal/store"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// Sink write retry policy. A failed write is retried with a doubling delay
// before the item is marked FAILED.
const (
	DefaultWriteRetries = 3
	DefaultWriteBackoff = 500 * time.Millisecond
)

// Outcome describes how one item left the pipeline.
type Outcome struct {
	Status        types.Status
	Relevant      bool
	DetailFetched bool
}

// ItemProcessor runs a single discovered item through the state machine:
// eager save, relevance judgment, optional detail fetch, final save. All
// persistence goes through the sink's upsert so the eager save and the detail
// update land on the same logical record.
type ItemProcessor struct {
	judge       *relevance.Judge
	sink        store.Sink
	description string
	runID       string

	writeRetries int
	writeBackoff time.Duration

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ProcessorOption configures an ItemProcessor.
type ProcessorOption func(*ItemProcessor)

// WithWriteRetryPolicy overrides the sink write retry policy.
func WithWriteRetryPolicy(retries int, backoff time.Duration) ProcessorOption {
	return func(p *ItemProcessor) {
		p.writeRetries = retries
		p.writeBackoff = backoff
	}
}

// WithClock overrides the processor's time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *ItemProcessor) { p.now = now }
}

// WithSleeper overrides the backoff sleeper.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ProcessorOption {
	return func(p *ItemProcessor) { p.sleep = sleep }
}

// NewItemProcessor creates a processor for one run. description is the event
// description items are judged against.
func NewItemProcessor(judge *relevance.Judge, sink store.Sink, description, runID string, opts ...ProcessorOption) *ItemProcessor {
	p := &ItemProcessor{
		judge:        judge,
		sink:         sink,
		description:  description,
		runID:        runID,
		writeRetries: DefaultWriteRetries,
		writeBackoff: DefaultWriteBackoff,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process drives one hit through the state machine. The returned error is
// non-nil only for context cancellation; item-level failures are absorbed
// into the FAILED outcome so the stream continues.
func (p *ItemProcessor) Process(ctx context.Context, adapter platform.Adapter, hit types.SearchHit) (Outcome, error) {
	record := types.NewItemRecord(hit, p.runID, p.now())

	// Eager save: the raw hit is durable before any judging or fetching, so
	// an interrupted run leaves an inspectable DISCOVERED record.
	if err := p.upsertWithRetry(ctx, record); err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: record.Status}, ctx.Err()
		}
		log.Printf("[PIPELINE] eager save failed for %s/%s: %v", hit.Platform, hit.NativeID, err)
		return p.fail(ctx, record), nil
	}

	judgment := p.judge.Judge(ctx, hit.JudgingContent, p.description, hit.Platform)
	record.RelevanceScore = &judgment.Score
	record.RelevanceMethod = string(judgment.Method)
	record.RelevanceReason = judgment.Reason
	record.UpdatedAt = p.now()

	if !judgment.Relevant {
		record.Status = types.StatusJudgedIrrelevant
		if err := p.upsertWithRetry(ctx, record); err != nil {
			if ctx.Err() != nil {
				return Outcome{Status: record.Status}, ctx.Err()
			}
			return p.fail(ctx, record), nil
		}
		return Outcome{Status: types.StatusJudgedIrrelevant}, nil
	}

	record.Status = types.StatusJudgedRelevant

	// Single-phase platforms: search content is already complete.
	if !adapter.RequiresTwoPhase() {
		record.Status = types.StatusSaved
		record.UpdatedAt = p.now()
		if err := p.upsertWithRetry(ctx, record); err != nil {
			if ctx.Err() != nil {
				return Outcome{Status: record.Status}, ctx.Err()
			}
			return p.failRelevant(ctx, record), nil
		}
		return Outcome{Status: types.StatusSaved, Relevant: true}, nil
	}

	// Two-phase: persist the relevant verdict, then replace the truncated
	// preview with the full detail.
	if err := p.upsertWithRetry(ctx, record); err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: record.Status}, ctx.Err()
		}
		return p.failRelevant(ctx, record), nil
	}

	detail, err := adapter.GetDetail(ctx, hit.NativeID)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: record.Status, Relevant: true}, ctx.Err()
		}
		log.Printf("[PIPELINE] detail fetch failed for %s/%s: %v", hit.Platform, hit.NativeID, err)
		// The partial eager-saved record is retained, only the status moves.
		return p.failRelevant(ctx, record), nil
	}

	applyDetail(record, detail)
	record.Status = types.StatusDetailFetched
	record.UpdatedAt = p.now()
	if err := p.upsertWithRetry(ctx, record); err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: record.Status, Relevant: true}, ctx.Err()
		}
		return p.failRelevant(ctx, record), nil
	}

	record.Status = types.StatusSaved
	record.UpdatedAt = p.now()
	if err := p.upsertWithRetry(ctx, record); err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: record.Status, Relevant: true}, ctx.Err()
		}
		outcome := p.failRelevant(ctx, record)
		outcome.DetailFetched = true
		return outcome, nil
	}

	return Outcome{Status: types.StatusSaved, Relevant: true, DetailFetched: true}, nil
}

// applyDetail replaces the partial search fields with the complete ones.
// Empty detail fields keep the search-provided values.
func applyDetail(record *types.ItemRecord, detail *platform.Detail) {
	if detail.Content != "" {
		record.Content = detail.Content
	}
	if detail.Title != "" {
		record.Title = detail.Title
	}
	if detail.Author != "" {
		record.Author = detail.Author
	}
	if detail.URL != "" {
		record.URL = detail.URL
	}
	if len(detail.MediaURLs) > 0 {
		record.MediaURLs = detail.MediaURLs
	}
	if len(detail.Comments) > 0 {
		record.Comments = detail.Comments
	}
}

// fail moves the record to FAILED and best-effort persists it.
func (p *ItemProcessor) fail(ctx context.Context, record *types.ItemRecord) Outcome {
	record.Status = types.StatusFailed
	record.UpdatedAt = p.now()
	if err := p.upsertWithRetry(ctx, record); err != nil {
		log.Printf("[PIPELINE] could not persist FAILED state for %s/%s: %v", record.Platform, record.NativeID, err)
	}
	return Outcome{Status: types.StatusFailed}
}

func (p *ItemProcessor) failRelevant(ctx context.Context, record *types.ItemRecord) Outcome {
	outcome := p.fail(ctx, record)
	outcome.Relevant = true
	return outcome
}

// upsertWithRetry writes through the sink with bounded backoff.
func (p *ItemProcessor) upsertWithRetry(ctx context.Context, record *types.ItemRecord) error {
	var lastErr error
	backoff := p.writeBackoff
	for attempt := 0; attempt < p.writeRetries; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
		}
		if lastErr = p.sink.Upsert(ctx, record); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
