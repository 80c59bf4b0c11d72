package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

func mergeRecord(platform, nativeID string, status types.Status, updated time.Time) types.ItemRecord {
	return types.ItemRecord{
		Platform:     platform,
		NativeID:     nativeID,
		Status:       status,
		DiscoveredAt: updated.Add(-time.Hour),
		UpdatedAt:    updated,
	}
}

func TestMergeRecords_DedupesByIdentity(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	setA := []types.ItemRecord{
		mergeRecord("weibo", "100", types.StatusDiscovered, base),
		mergeRecord("weibo", "200", types.StatusSaved, base),
	}
	setB := []types.ItemRecord{
		mergeRecord("weibo", "100", types.StatusSaved, base.Add(time.Minute)),
		mergeRecord("bilibili", "100", types.StatusSaved, base),
	}

	merged := MergeRecords(setA, setB)
	require.Len(t, merged, 3)

	// The further-progressed duplicate wins
	for _, record := range merged {
		if record.Platform == "weibo" && record.NativeID == "100" {
			assert.Equal(t, types.StatusSaved, record.Status)
		}
	}
}

func TestMergeRecords_ProgressBeatsRecency(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	merged := MergeRecords(
		[]types.ItemRecord{mergeRecord("weibo", "100", types.StatusSaved, base)},
		[]types.ItemRecord{mergeRecord("weibo", "100", types.StatusDiscovered, base.Add(time.Hour))},
	)
	require.Len(t, merged, 1)
	assert.Equal(t, types.StatusSaved, merged[0].Status)
}

func TestMergeRecords_NewerWinsOnEqualProgress(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	older := mergeRecord("weibo", "100", types.StatusSaved, base)
	older.Content = "older"
	newer := mergeRecord("weibo", "100", types.StatusSaved, base.Add(time.Minute))
	newer.Content = "newer"

	merged := MergeRecords([]types.ItemRecord{older}, []types.ItemRecord{newer})
	require.Len(t, merged, 1)
	assert.Equal(t, "newer", merged[0].Content)
}

func TestMergeRecords_StableOrdering(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	set := []types.ItemRecord{
		mergeRecord("zhihu", "a", types.StatusSaved, base),
		mergeRecord("bilibili", "b", types.StatusSaved, base.Add(time.Minute)),
		mergeRecord("bilibili", "a", types.StatusSaved, base),
	}

	merged := MergeRecords(set)
	require.Len(t, merged, 3)
	assert.Equal(t, "bilibili", merged[0].Platform)
	assert.Equal(t, "a", merged[0].NativeID)
	assert.Equal(t, "b", merged[1].NativeID)
	assert.Equal(t, "zhihu", merged[2].Platform)
}

func TestMergeRecords_Empty(t *testing.T) {
	assert.Empty(t, MergeRecords())
	assert.Empty(t, MergeRecords(nil, nil))
}

func TestFilterRelevant(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	records := []types.ItemRecord{
		mergeRecord("weibo", "100", types.StatusSaved, base),
		mergeRecord("weibo", "101", types.StatusJudgedIrrelevant, base),
		mergeRecord("weibo", "102", types.StatusFailed, base),
	}

	relevant := FilterRelevant(records)
	require.Len(t, relevant, 1)
	assert.Equal(t, "100", relevant[0].NativeID)
}
