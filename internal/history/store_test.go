package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, first.StartRun(ctx, "run-1", day))
	require.NoError(t, first.Close())

	second, err := Open(ctx, dir)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, filepath.Join(dir, "history.db"), second.Path())

	runs, err := second.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, RunRunning, runs[0].Status)
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.StartRun(ctx, "run-1", day))
	ok := model.Paper{ID: "2401.00001v2", Title: "One"}
	bad := model.Paper{ID: "2401.00002v1", Title: "Two"}
	require.NoError(t, store.RecordPaper(ctx, "run-1", ok, PaperDone, "", nil))
	require.NoError(t, store.RecordPaper(ctx, "run-1", bad, PaperFailed, "summarize", errors.New("empty script")))

	ep := model.Episode{
		Date:      day,
		Title:     "Daily Papers 2024-01-01",
		AudioPath: "/data/2024-01-01/episode.mp3",
		Segments:  []model.AudioSegment{{PaperID: ok.ID}},
		Duration:  90 * time.Second,
	}
	require.NoError(t, store.RecordEpisode(ctx, "run-1", ep, ""))
	require.NoError(t, store.FinishRun(ctx, "run-1", RunSummary{Status: RunCompleted, Fetched: 12, Selected: 2}))

	runs, err := store.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 12, run.Fetched)
	assert.Equal(t, 2, run.Selected)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, day, run.PaperDate)
	assert.Equal(t, "Daily Papers 2024-01-01", run.Episode)
	assert.False(t, run.FinishedAt.IsZero())

	episodes, err := store.RecentEpisodes(ctx, 5)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, 90*time.Second, episodes[0].Duration)
	assert.Equal(t, 1, episodes[0].SegmentCount)
	assert.Empty(t, episodes[0].UploadID)

	// Publishing later updates the upload id in place.
	require.NoError(t, store.RecordEpisode(ctx, "run-1", ep, "yt-123"))
	episodes, err = store.RecentEpisodes(ctx, 5)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "yt-123", episodes[0].UploadID)
}

func TestProcessedIDs(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.StartRun(ctx, "run-1", day))
	require.NoError(t, store.RecordPaper(ctx, "run-1", model.Paper{ID: "2401.00001v1"}, PaperDone, "", nil))
	require.NoError(t, store.RecordPaper(ctx, "run-1", model.Paper{ID: "2401.00002v1"}, PaperFailed, "synthesize", errors.New("no audio")))
	require.NoError(t, store.RecordEpisode(ctx, "run-1", model.Episode{Date: day, AudioPath: "a.mp3"}, ""))

	// Done but no episode: not processed.
	require.NoError(t, store.StartRun(ctx, "run-2", day))
	require.NoError(t, store.RecordPaper(ctx, "run-2", model.Paper{ID: "2401.00003v1"}, PaperDone, "", nil))

	processed, err := store.ProcessedIDs(ctx, []string{"2401.00001v3", "2401.00002", "2401.00003", "2401.00004"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2401.00001": true}, processed)

	empty, err := store.ProcessedIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecentRunsOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.StartRun(ctx, id, day))
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), "missing", RunSummary{Status: RunFailed})
	assert.Error(t, err)
}
