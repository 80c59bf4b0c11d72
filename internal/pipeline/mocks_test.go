package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sallywang319/myMediaCrawler/internal/llm"
	"github.com/Sallywang319/myMediaCrawler/internal/platform"
	"github.com/Sallywang319/myMediaCrawler/internal/relevance"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// mockAdapter implements platform.Adapter with function fields.
type mockAdapter struct {
	name     string
	twoPhase bool

	SearchFunc    func(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error
	GetDetailFunc func(ctx context.Context, nativeID string) (*platform.Detail, error)

	mu          sync.Mutex
	detailCalls []string
}

func (m *mockAdapter) Name() string           { return m.name }
func (m *mockAdapter) RequiresTwoPhase() bool { return m.twoPhase }
func (m *mockAdapter) Close() error           { return nil }

func (m *mockAdapter) Search(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, keywords, emit)
	}
	return nil
}

func (m *mockAdapter) GetDetail(ctx context.Context, nativeID string) (*platform.Detail, error) {
	m.mu.Lock()
	m.detailCalls = append(m.detailCalls, nativeID)
	m.mu.Unlock()
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(ctx, nativeID)
	}
	return &platform.Detail{Content: "full detail for " + nativeID}, nil
}

func (m *mockAdapter) detailCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.detailCalls)
}

// emitHits returns a SearchFunc that emits fixed hits in order.
func emitHits(hits ...types.SearchHit) func(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error {
	return func(_ context.Context, _ []string, emit func(types.SearchHit) error) error {
		for _, hit := range hits {
			if err := emit(hit); err != nil {
				return err
			}
		}
		return nil
	}
}

func makeHit(platformName, nativeID, content string, requiresDetail bool) types.SearchHit {
	return types.SearchHit{
		Platform:       platformName,
		NativeID:       nativeID,
		JudgingContent: content,
		RequiresDetail: requiresDetail,
	}
}

// mockSink records every upsert. Failure injection is keyed by native_id and
// consumed per call, so "fail twice then succeed" is expressible.
type mockSink struct {
	mu        sync.Mutex
	history   []types.ItemRecord
	failNext  map[string]int
	failAll   bool
	upsertErr error
}

func newMockSink() *mockSink {
	return &mockSink{failNext: make(map[string]int)}
}

func (s *mockSink) Upsert(_ context.Context, record *types.ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || s.failNext[record.NativeID] > 0 {
		if s.failNext[record.NativeID] > 0 {
			s.failNext[record.NativeID]--
		}
		if s.upsertErr != nil {
			return s.upsertErr
		}
		return fmt.Errorf("injected sink failure for %s", record.NativeID)
	}
	s.history = append(s.history, *record)
	return nil
}

func (s *mockSink) Close() error { return nil }

// latest returns the last persisted state of an item, or nil.
func (s *mockSink) latest(platformName, nativeID string) *types.ItemRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Platform == platformName && s.history[i].NativeID == nativeID {
			record := s.history[i]
			return &record
		}
	}
	return nil
}

// statusTrail returns the persisted status sequence for an item.
func (s *mockSink) statusTrail(platformName, nativeID string) []types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var trail []types.Status
	for _, record := range s.history {
		if record.Platform == platformName && record.NativeID == nativeID {
			trail = append(trail, record.Status)
		}
	}
	return trail
}

// scriptedJudge builds a judge whose LLM scores content by marker words:
// anything containing "backlash" scores 0.8, everything else 0.1.
func scriptedJudge() *relevance.Judge {
	client := &scriptedLLM{}
	return relevance.NewJudge(client)
}

type scriptedLLM struct{}

func (s *scriptedLLM) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return "", nil
}

func (s *scriptedLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	if strings.Contains(prompt, "backlash") {
		return `{"score": 0.8, "reason": "on topic"}`, nil
	}
	return `{"score": 0.1, "reason": "off topic"}`, nil
}

func (s *scriptedLLM) GetModel(_ llm.ModelTier) string { return "scripted" }
func (s *scriptedLLM) Close() error                    { return nil }

// noSleep makes retry backoff instant in tests.
func noSleep(_ context.Context, _ time.Duration) error { return nil }

func testEvent(keywords ...string) *types.Event {
	return &types.Event{Description: testDescription, Keywords: keywords}
}

const (
	relevantContent   = "Crowds describe the backlash against the launch in detail"
	irrelevantContent = "A quiet afternoon recipe for braised pork and rice"
)
