package store

import (
	"sort"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// statusRank orders pipeline states by how far an item progressed. Used to
// pick the winner when merging duplicate records from separate runs.
var statusRank = map[types.Status]int{
	types.StatusDiscovered:       0,
	types.StatusJudgedIrrelevant: 1,
	types.StatusJudgedRelevant:   2,
	types.StatusDetailFetched:    3,
	types.StatusFailed:           4,
	types.StatusSaved:            5,
}

// MergeRecords combines record sets from separate runs or files, deduplicating
// by (platform, native_id). For duplicates the record that progressed further
// wins; on equal progress the newer UpdatedAt wins. Output is sorted by
// platform then discovery time for stable diffs.
func MergeRecords(sets ...[]types.ItemRecord) []types.ItemRecord {
	type key struct{ platform, nativeID string }
	best := make(map[key]types.ItemRecord)

	for _, set := range sets {
		for _, record := range set {
			k := key{record.Platform, record.NativeID}
			current, exists := best[k]
			if !exists {
				best[k] = record
				continue
			}
			if pickMerged(current, record) {
				best[k] = record
			}
		}
	}

	merged := make([]types.ItemRecord, 0, len(best))
	for _, record := range best {
		merged = append(merged, record)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Platform != merged[j].Platform {
			return merged[i].Platform < merged[j].Platform
		}
		if !merged[i].DiscoveredAt.Equal(merged[j].DiscoveredAt) {
			return merged[i].DiscoveredAt.Before(merged[j].DiscoveredAt)
		}
		return merged[i].NativeID < merged[j].NativeID
	})
	return merged
}

// pickMerged reports whether candidate should replace current.
func pickMerged(current, candidate types.ItemRecord) bool {
	if statusRank[candidate.Status] != statusRank[current.Status] {
		return statusRank[candidate.Status] > statusRank[current.Status]
	}
	return candidate.UpdatedAt.After(current.UpdatedAt)
}

// FilterRelevant returns only records that completed the pipeline as saved.
func FilterRelevant(records []types.ItemRecord) []types.ItemRecord {
	var relevant []types.ItemRecord
	for _, record := range records {
		if record.Status == types.StatusSaved {
			relevant = append(relevant, record)
		}
	}
	return relevant
}
