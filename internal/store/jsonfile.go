package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// RelevantSnapshotFile is the cross-platform snapshot of saved items, written
// when the sink closes. Downstream consumers read this instead of walking the
// per-platform files.
const RelevantSnapshotFile = "relevant_latest.json"

// platformRecordsFile is the per-platform record file name.
const platformRecordsFile = "crawled_items.json"

// JSONFileSink persists records as JSON files under a base directory, one
// file per platform plus a relevant-items snapshot. Layout:
//
//	<base>/<platform>/json/crawled_items.json
//	<base>/relevant_latest.json
type JSONFileSink struct {
	mu        sync.Mutex
	baseDir   string
	platforms map[string]*platformRecords
}

// platformRecords is the in-memory view of one platform's record file.
// Records keep discovery order; index maps native_id to its slot.
type platformRecords struct {
	records []*types.ItemRecord
	index   map[string]int
}

// NewJSONFileSink creates the sink rooted at baseDir, creating it if needed.
func NewJSONFileSink(baseDir string) (*JSONFileSink, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &JSONFileSink{
		baseDir:   baseDir,
		platforms: make(map[string]*platformRecords),
	}, nil
}

// Upsert implements Sink. The platform file is rewritten atomically on every
// call so an interrupted run leaves a readable file with the eager-saved
// records intact.
func (s *JSONFileSink) Upsert(_ context.Context, record *types.ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.loadPlatform(record.Platform)
	if err != nil {
		return &WriteError{Platform: record.Platform, NativeID: record.NativeID, Message: "failed to load existing records", Cause: err}
	}

	clone := *record
	if slot, ok := platform.index[record.NativeID]; ok {
		platform.records[slot] = &clone
	} else {
		platform.index[record.NativeID] = len(platform.records)
		platform.records = append(platform.records, &clone)
	}

	if err := writeJSONAtomic(s.recordsPath(record.Platform), platform.records); err != nil {
		return &WriteError{Platform: record.Platform, NativeID: record.NativeID, Message: "failed to write records file", Cause: err}
	}
	return nil
}

// Close writes the relevant-items snapshot.
func (s *JSONFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var relevant []*types.ItemRecord
	for _, platform := range s.platforms {
		for _, record := range platform.records {
			if record.Status == types.StatusSaved {
				relevant = append(relevant, record)
			}
		}
	}
	if relevant == nil {
		relevant = []*types.ItemRecord{}
	}

	path := filepath.Join(s.baseDir, RelevantSnapshotFile)
	if err := writeJSONAtomic(path, relevant); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *JSONFileSink) recordsPath(platform string) string {
	return filepath.Join(s.baseDir, platform, "json", platformRecordsFile)
}

// loadPlatform returns the in-memory records for a platform, reading any
// existing file on first touch so re-runs keep upserting the same items.
func (s *JSONFileSink) loadPlatform(name string) (*platformRecords, error) {
	if platform, ok := s.platforms[name]; ok {
		return platform, nil
	}

	platform := &platformRecords{index: make(map[string]int)}
	path := s.recordsPath(name)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First write for this platform
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &platform.records); err != nil {
			return nil, fmt.Errorf("corrupt records file %s: %w", path, err)
		}
		for i, record := range platform.records {
			platform.index[record.NativeID] = i
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s.platforms[name] = platform
	return platform, nil
}

// writeJSONAtomic writes v as indented JSON via a temp file and rename.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadRecords loads a platform record file written by this sink.
func ReadRecords(path string) ([]types.ItemRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []types.ItemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
