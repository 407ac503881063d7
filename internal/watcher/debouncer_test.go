package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestDebouncer_CoalescesPerPath(t *testing.T) {
	// Given: a burst of events on three paths
	d := NewDebouncer(20*time.Millisecond, 4)
	defer d.Stop()

	d.Add(FileEvent{Path: "/kb/docs/b.md", Operation: OpCreate})
	d.Add(FileEvent{Path: "/kb/docs/b.md", Operation: OpModify})
	d.Add(FileEvent{Path: "/kb/docs/a.md", Operation: OpDelete})
	d.Add(FileEvent{Path: "/kb/docs/a.md", Operation: OpCreate})
	d.Add(FileEvent{Path: "/kb/docs/tmp.md", Operation: OpCreate})
	d.Add(FileEvent{Path: "/kb/docs/tmp.md", Operation: OpDelete})

	// When: the window elapses
	batch := receive(t, d)

	// Then: one event per surviving path, sorted
	require.Len(t, batch, 2)
	assert.Equal(t, "/kb/docs/a.md", batch[0].Path)
	assert.Equal(t, OpModify, batch[0].Operation)
	assert.Equal(t, "/kb/docs/b.md", batch[1].Path)
	assert.Equal(t, OpCreate, batch[1].Operation)
}

func TestDebouncer_LatestWins(t *testing.T) {
	prev := FileEvent{Path: "p", Operation: OpModify}

	got, keep := coalesce(prev, FileEvent{Path: "p", Operation: OpDelete})

	assert.True(t, keep)
	assert.Equal(t, OpDelete, got.Operation)
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour, 1)
	d.Add(FileEvent{Path: "p", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "q", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}
