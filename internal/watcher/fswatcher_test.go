package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dirs ...string) *Watcher {
	t.Helper()
	w, err := New(Options{
		Debounce: 30 * time.Millisecond,
		Eligible: func(p string) bool { return strings.HasSuffix(p, ".md") },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, dirs)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func collect(t *testing.T, w *Watcher, want string) []FileEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	var all []FileEvent
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok)
			all = append(all, batch...)
			for _, ev := range batch {
				if ev.Path == want {
					return all
				}
			}
		case <-deadline:
			t.Fatalf("no event for %s, got %v", want, all)
			return nil
		}
	}
}

func TestWatcher_ReportsEligibleFiles(t *testing.T) {
	// Given: a watched docs directory
	docs := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	w := startWatcher(t, docs, filepath.Join(t.TempDir(), "missing"))

	// When: an ineligible and an eligible file are written
	require.NoError(t, os.WriteFile(filepath.Join(docs, "skip.png"), []byte("x"), 0o644))
	target := filepath.Join(docs, "note.md")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

	// Then: only the document is reported
	events := collect(t, w, target)
	for _, ev := range events {
		assert.NotEqual(t, filepath.Join(docs, "skip.png"), ev.Path)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	docs := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	w := startWatcher(t, docs)

	nested := filepath.Join(docs, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(nested, "deep.md")
	require.NoError(t, os.WriteFile(target, []byte("deep"), 0o644))

	collect(t, w, target)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}
