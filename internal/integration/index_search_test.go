package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/scanner"
	"github.com/cmos-dev/cmoskb/internal/search"
	"github.com/cmos-dev/cmoskb/internal/store"
	"github.com/cmos-dev/cmoskb/pkg/retriever"
)

type kb struct {
	root   string
	store  *store.Store
	idx    *index.Indexer
	engine *search.Engine
	recall *recall.Cache
}

func newKB(t *testing.T) *kb {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, ".cmos", "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.EnsureSchema(context.Background()))

	sc := scanner.New(scanner.Options{})
	return &kb{
		root:   filepath.Join(dir, "cmos"),
		store:  st,
		idx:    index.New(st, sc),
		engine: search.New(st),
		recall: recall.New(2, recall.WithScanner(sc)),
	}
}

func (k *kb) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(k.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexSearch_EndToEnd(t *testing.T) {
	// Given: a small knowledge base on disk
	k := newKB(t)
	ctx := context.Background()
	k.write(t, "docs/architecture.md", "# Architecture\n\n## Storage\n\nChunks live in SQLite with an FTS5 index.\n\n```\nFTS5 inside a fence is ignored\n```\n")
	k.write(t, "research/notes.txt", "Notes\n\nbm25 ranks FTS5 matches.\n")
	k.write(t, "docs/image.png", "not a document")

	// When: indexing and searching
	res, err := k.idx.Index(ctx, k.root, false)
	require.NoError(t, err)
	hits, err := k.engine.Search(ctx, "FTS5", 0)
	require.NoError(t, err)

	// Then: both text files are indexed and fenced text is not searchable
	assert.Equal(t, 2, res.Indexed)
	require.Len(t, hits, 2)
	paths := []string{hits[0].Path, hits[1].Path}
	assert.ElementsMatch(t, []string{"cmos/docs/architecture.md", "cmos/research/notes.txt"}, paths)
	for _, h := range hits {
		assert.NotContains(t, h.Snippet, "fence")
	}

	noFence, err := k.engine.Search(ctx, "fence", 0)
	require.NoError(t, err)
	assert.Empty(t, noFence)
}

func TestIndexSearch_ReconcileAfterDelete(t *testing.T) {
	k := newKB(t)
	ctx := context.Background()
	gone := k.write(t, "docs/gone.md", "# Gone\n\nephemeral paragraph\n")
	k.write(t, "docs/kept.md", "# Kept\n\nlasting paragraph\n")
	_, err := k.idx.Index(ctx, k.root, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone))
	res, err := k.idx.Index(ctx, k.root, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Skipped)
	hits, err := k.engine.Search(ctx, "ephemeral", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
	stats, err := k.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sources)
}

func TestRetriever_SearchAndRecallAgree(t *testing.T) {
	// Given: an indexed document
	k := newKB(t)
	ctx := context.Background()
	k.write(t, "docs/triggers.md", "# Triggers\n\nThe trigger registry maps events to handlers.\n")
	_, err := k.idx.Index(ctx, k.root, false)
	require.NoError(t, err)

	fromSearch, err := retriever.FromEngine(k.engine)
	require.NoError(t, err)
	fromRecall, err := retriever.FromRecall(k.recall, k.root)
	require.NoError(t, err)

	// When: both paths answer the same query
	a, err := fromSearch.Retrieve(ctx, "registry", 1)
	require.NoError(t, err)
	b, err := fromRecall.Retrieve(ctx, "registry", 1)
	require.NoError(t, err)

	// Then: they point at the same paragraph
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Path, b[0].Path)
	assert.Equal(t, a[0].Line, b[0].Line)
	assert.Equal(t, "search", a[0].Source)
	assert.Equal(t, "recall", b[0].Source)
}
