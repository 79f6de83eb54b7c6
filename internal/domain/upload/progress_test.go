package upload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevault/services/upload-api/internal/domain/upload"
)

func TestProgressStoreLifecycle(t *testing.T) {
	store := upload.NewProgressStore()

	id := store.Add("movie.mp4", 1000)
	require.NotEmpty(t, id)

	record, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, upload.StatusPending, record.Status)
	assert.Equal(t, 0, record.Progress)
	assert.Equal(t, "movie.mp4", record.FileName)
	assert.Nil(t, record.CompletedAt)

	store.UpdateProgress(id, 40)
	record, _ = store.Get(id)
	assert.Equal(t, upload.StatusUploading, record.Status)
	assert.Equal(t, 40, record.Progress)

	store.Complete(id, &upload.Result{FileID: "f-1"})
	record, _ = store.Get(id)
	assert.Equal(t, upload.StatusCompleted, record.Status)
	assert.Equal(t, 100, record.Progress)
	require.NotNil(t, record.Result)
	assert.Equal(t, "f-1", record.Result.FileID)
	assert.NotNil(t, record.CompletedAt)
}

func TestProgressStoreClampsPercentages(t *testing.T) {
	store := upload.NewProgressStore()
	id := store.Add("a.bin", 10)

	store.UpdateProgress(id, 150)
	record, _ := store.Get(id)
	assert.Equal(t, 100, record.Progress)

	id2 := store.Add("b.bin", 10)
	store.UpdateProgress(id2, -10)
	record, _ = store.Get(id2)
	assert.Equal(t, 0, record.Progress)
}

func TestProgressStoreIgnoresUnknownAndTerminalRecords(t *testing.T) {
	store := upload.NewProgressStore()

	// Unknown id is a no-op, not a panic.
	store.UpdateProgress("up_missing", 50)
	store.SetStatus("up_missing", upload.StatusFailed, "boom")

	id := store.Add("a.bin", 10)
	store.SetStatus(id, upload.StatusFailed, "network down")

	store.UpdateProgress(id, 90)
	record, _ := store.Get(id)
	assert.Equal(t, upload.StatusFailed, record.Status)
	assert.NotEqual(t, 90, record.Progress)
	assert.Equal(t, "network down", record.Error)
	assert.NotNil(t, record.CompletedAt)
}

func TestProgressStoreTracksIndependentRecords(t *testing.T) {
	store := upload.NewProgressStore()

	first := store.Add("one.mp4", 100)
	second := store.Add("two.mp4", 200)
	require.NotEqual(t, first, second)

	store.UpdateProgress(first, 30)
	store.UpdateProgress(second, 70)

	r1, _ := store.Get(first)
	r2, _ := store.Get(second)
	assert.Equal(t, 30, r1.Progress)
	assert.Equal(t, 70, r2.Progress)
}

func TestProgressStoreListsAndClearsTerminal(t *testing.T) {
	store := upload.NewProgressStore()

	active := store.Add("active.mp4", 100)
	done := store.Add("done.mp4", 100)
	failed := store.Add("failed.mp4", 100)

	store.UpdateProgress(active, 10)
	store.Complete(done, &upload.Result{FileID: "f-done"})
	store.SetStatus(failed, upload.StatusFailed, "gone")

	assert.Equal(t, 3, store.Len())
	assert.Len(t, store.List(), 3)
	assert.True(t, store.HasActive())

	actives := store.ListActive()
	require.Len(t, actives, 1)
	assert.Equal(t, active, actives[0].ID)

	removed := store.ClearTerminal()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(done)
	assert.False(t, ok)
}

func TestProgressStoreRemove(t *testing.T) {
	store := upload.NewProgressStore()
	id := store.Add("gone.mp4", 1)

	store.Remove(id)
	_, ok := store.Get(id)
	assert.False(t, ok)
	assert.False(t, store.HasActive())
}

func TestProgressStoreSubscription(t *testing.T) {
	store := upload.NewProgressStore()
	events, cancel := store.Subscribe()
	defer cancel()

	id := store.Add("watched.mp4", 100)
	store.UpdateProgress(id, 50)
	store.Complete(id, &upload.Result{FileID: "f-9"})

	added := <-events
	assert.Equal(t, upload.EventAdded, added.Type)
	assert.Equal(t, id, added.Record.ID)

	progressed := <-events
	assert.Equal(t, upload.EventProgress, progressed.Type)
	assert.Equal(t, 50, progressed.Record.Progress)

	completed := <-events
	assert.Equal(t, upload.EventStatus, completed.Type)
	assert.Equal(t, upload.StatusCompleted, completed.Record.Status)
}
