package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sallywang319/myMediaCrawler/internal/platform"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

func fastOrchestrator(adapters []platform.Adapter, sink *mockSink) *Orchestrator {
	return NewOrchestrator(adapters, scriptedJudge(), sink,
		WithItemDelay(0),
		WithProcessorOptions(WithSleeper(noSleep)))
}

// Three platforms, two hits each, one relevant per platform. The two-phase
// platform fetches detail for its relevant hit only.
func TestRun_ExampleScenario(t *testing.T) {
	weibo := &mockAdapter{
		name:     "weibo",
		twoPhase: true,
		SearchFunc: emitHits(
			makeHit("weibo", "w1", relevantContent, true),
			makeHit("weibo", "w2", irrelevantContent, true),
		),
	}
	bilibili := &mockAdapter{
		name: "bilibili",
		SearchFunc: emitHits(
			makeHit("bilibili", "b1", relevantContent, false),
			makeHit("bilibili", "b2", irrelevantContent, false),
		),
	}
	zhihu := &mockAdapter{
		name: "zhihu",
		SearchFunc: emitHits(
			makeHit("zhihu", "z1", irrelevantContent, false),
			makeHit("zhihu", "z2", relevantContent, false),
		),
	}

	sink := newMockSink()
	orchestrator := fastOrchestrator([]platform.Adapter{weibo, bilibili, zhihu}, sink)

	report, err := orchestrator.Run(context.Background(), "run-1", testEvent("Company X", "product Y", "backlash"))
	require.NoError(t, err)

	discovered, relevant, saved, failed := report.Totals()
	assert.Equal(t, 6, discovered)
	assert.Equal(t, 3, relevant)
	assert.Equal(t, 3, saved)
	assert.Equal(t, 0, failed)

	// Only the two-phase platform's relevant hit triggered a detail fetch
	assert.Equal(t, []string{"w1"}, weibo.detailCalls)
	assert.Zero(t, bilibili.detailCallCount())
	assert.Zero(t, zhihu.detailCallCount())

	assert.False(t, report.HasPlatformErrors())
	assert.Equal(t, []string{"Company X", "product Y", "backlash"}, report.Keywords)
}

func TestRun_SearchFailureIsolated(t *testing.T) {
	broken := &mockAdapter{
		name: "weibo",
		SearchFunc: func(_ context.Context, _ []string, _ func(types.SearchHit) error) error {
			return &platform.SearchError{Platform: "weibo", Message: "rate limited"}
		},
	}
	healthy := &mockAdapter{
		name:       "bilibili",
		SearchFunc: emitHits(makeHit("bilibili", "b1", relevantContent, false)),
	}

	sink := newMockSink()
	orchestrator := fastOrchestrator([]platform.Adapter{broken, healthy}, sink)

	report, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)

	assert.True(t, report.HasPlatformErrors())
	assert.Contains(t, report.Platforms[0].SearchErr, "rate limited")
	assert.Zero(t, report.Platforms[0].Discovered)

	// The healthy platform still reached SAVED
	assert.Equal(t, 1, report.Platforms[1].Saved)
	final := sink.latest("bilibili", "b1")
	require.NotNil(t, final)
	assert.Equal(t, types.StatusSaved, final.Status)
}

func TestRun_MidStreamSearchFailureKeepsEarlierCounts(t *testing.T) {
	flaky := &mockAdapter{
		name: "weibo",
		SearchFunc: func(_ context.Context, _ []string, emit func(types.SearchHit) error) error {
			if err := emit(makeHit("weibo", "w1", relevantContent, false)); err != nil {
				return err
			}
			return &platform.SearchError{Platform: "weibo", Message: "connection reset"}
		},
	}

	sink := newMockSink()
	orchestrator := fastOrchestrator([]platform.Adapter{flaky}, sink)

	report, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Platforms[0].Discovered)
	assert.Equal(t, 1, report.Platforms[0].Saved)
	assert.Contains(t, report.Platforms[0].SearchErr, "connection reset")
}

func TestRun_InOrderWithinStream(t *testing.T) {
	adapter := &mockAdapter{
		name: "bilibili",
		SearchFunc: emitHits(
			makeHit("bilibili", "b1", relevantContent, false),
			makeHit("bilibili", "b2", relevantContent, false),
			makeHit("bilibili", "b3", relevantContent, false),
		),
	}

	sink := newMockSink()
	orchestrator := fastOrchestrator([]platform.Adapter{adapter}, sink)

	_, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)

	// Discovery order is preserved through to persistence
	var order []string
	for _, record := range sink.history {
		if record.Status == types.StatusDiscovered {
			order = append(order, record.NativeID)
		}
	}
	assert.Equal(t, []string{"b1", "b2", "b3"}, order)
}

func TestRun_DetailFailureDoesNotStopStream(t *testing.T) {
	adapter := &mockAdapter{
		name:     "weibo",
		twoPhase: true,
		SearchFunc: emitHits(
			makeHit("weibo", "w1", relevantContent, true),
			makeHit("weibo", "w2", relevantContent, true),
		),
		GetDetailFunc: func(_ context.Context, nativeID string) (*platform.Detail, error) {
			if nativeID == "w1" {
				return nil, &platform.DetailError{Platform: "weibo", NativeID: nativeID, Message: "gone"}
			}
			return &platform.Detail{Content: "full text for w2"}, nil
		},
	}

	sink := newMockSink()
	orchestrator := fastOrchestrator([]platform.Adapter{adapter}, sink)

	report, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Platforms[0].Discovered)
	assert.Equal(t, 2, report.Platforms[0].JudgedRelevant)
	assert.Equal(t, 1, report.Platforms[0].Saved)
	assert.Equal(t, 1, report.Platforms[0].Failed)

	assert.Equal(t, types.StatusFailed, sink.latest("weibo", "w1").Status)
	assert.Equal(t, types.StatusSaved, sink.latest("weibo", "w2").Status)
}

func TestRun_ItemDelayPacesStream(t *testing.T) {
	adapter := &mockAdapter{
		name: "bilibili",
		SearchFunc: emitHits(
			makeHit("bilibili", "b1", irrelevantContent, false),
			makeHit("bilibili", "b2", irrelevantContent, false),
			makeHit("bilibili", "b3", irrelevantContent, false),
		),
	}

	sink := newMockSink()
	orchestrator := NewOrchestrator([]platform.Adapter{adapter}, scriptedJudge(), sink,
		WithItemDelay(30*time.Millisecond),
		WithProcessorOptions(WithSleeper(noSleep)))

	start := time.Now()
	_, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)

	// Two inter-item gaps for three items
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRun_CancellationStopsAllStreams(t *testing.T) {
	var emitted sync.Map
	slowAdapter := func(name string) *mockAdapter {
		return &mockAdapter{
			name: name,
			SearchFunc: func(ctx context.Context, _ []string, emit func(types.SearchHit) error) error {
				for i := 0; ; i++ {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
					hit := makeHit(name, name+"-"+string(rune('a'+i)), irrelevantContent, false)
					if err := emit(hit); err != nil {
						return err
					}
					emitted.Store(hit.NativeID, true)
				}
			},
		}
	}

	sink := newMockSink()
	orchestrator := NewOrchestrator(
		[]platform.Adapter{slowAdapter("weibo"), slowAdapter("zhihu")},
		scriptedJudge(), sink,
		WithItemDelay(10*time.Millisecond),
		WithProcessorOptions(WithSleeper(noSleep)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := orchestrator.Run(ctx, "run-1", testEvent("backlash"))
	require.Error(t, err)
	assert.NotNil(t, report)
}

func TestRun_NoAdapters(t *testing.T) {
	sink := newMockSink()
	orchestrator := fastOrchestrator(nil, sink)

	report, err := orchestrator.Run(context.Background(), "run-1", testEvent("backlash"))
	require.NoError(t, err)
	discovered, _, _, _ := report.Totals()
	assert.Zero(t, discovered)
}
