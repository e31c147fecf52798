package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confluence-lifecycle/internal/common"
	"confluence-lifecycle/internal/models"
)

func newTestStore(t *testing.T) *runStore {
	t.Helper()

	config := &common.StorageConfig{
		DatabasePath: filepath.Join(t.TempDir(), "lifecycle.db"),
	}

	store, err := NewRunStore(config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.(*runStore)
}

func runAt(space string, finished time.Time) *models.RunRecord {
	return &models.RunRecord{
		Space:      space,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
		Thresholds: models.Thresholds{StaleDays: 90, RottenDays: 180},
		Stats: models.RunStats{
			Pages: models.PhaseCounts{Fresh: 3, Stale: 2, Rotten: 1},
		},
		Results: []models.ProcessResult{
			{PageID: "1", Title: "A Page", Phase: models.PhaseFresh},
		},
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	finished := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(runAt("DOCS", finished)))

	last, err := store.LastRun("DOCS")
	require.NoError(t, err)
	require.NotNil(t, last)

	assert.Equal(t, "DOCS", last.Space)
	assert.True(t, last.FinishedAt.Equal(finished))
	assert.Equal(t, 3, last.Stats.Pages.Fresh)
	require.Len(t, last.Results, 1)
	assert.Equal(t, "A Page", last.Results[0].Title)
}

func TestRunStoreLastRunIsNewest(t *testing.T) {
	store := newTestStore(t)

	older := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	require.NoError(t, store.SaveRun(runAt("DOCS", older)))
	require.NoError(t, store.SaveRun(runAt("DOCS", newer)))

	last, err := store.LastRun("DOCS")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.FinishedAt.Equal(newer))
}

func TestRunStoreLastRunEmpty(t *testing.T) {
	store := newTestStore(t)

	last, err := store.LastRun("DOCS")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestRunStoreLoadRunsChronological(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveRun(runAt("DOCS", base.AddDate(0, 0, i))))
	}
	require.NoError(t, store.SaveRun(runAt("OTHER", base)))

	runs, err := store.LoadRuns("DOCS")
	require.NoError(t, err)
	require.Len(t, runs, 3)

	for i := 1; i < len(runs); i++ {
		assert.True(t, runs[i-1].FinishedAt.Before(runs[i].FinishedAt))
	}
}

func TestRunStoreSpacesAreIsolated(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(runAt("DOCS", base)))

	last, err := store.LastRun("OTHER")
	require.NoError(t, err)
	assert.Nil(t, last)

	runs, err := store.LoadRuns("OTHER")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
