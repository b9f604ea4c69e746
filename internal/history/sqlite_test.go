package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Entry{
			Time:          base.Add(time.Duration(i) * time.Second),
			Source:        "api",
			Text:          fmt.Sprintf("sit %d", i),
			Action:        "SIT",
			Score:         0.8,
			Rewarded:      i%2 == 0,
			CorrelationID: fmt.Sprintf("corr-%d", i),
		}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "sit 4", entries[0].Text, "newest first")
	assert.Equal(t, "sit 2", entries[2].Text)
	assert.Equal(t, "corr-4", entries[0].CorrelationID)
	assert.True(t, entries[0].Rewarded)
}

func TestRecentDefaultLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{Source: "cli", Text: "sit", Action: "SIT"}))

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, entries[0].Time.IsZero(), "zero entry time is filled at record time")
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	require.NoError(t, r.Record(context.Background(), Entry{Text: "sit"}))
	entries, err := r.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, r.Close())
}
