package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/scanner"
	"github.com/cmos-dev/cmoskb/internal/store"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

type fixture struct {
	root  string
	store *store.Store
	idx   *Indexer
}

func newFixture(t *testing.T, dbPath string) *fixture {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.EnsureSchema(context.Background()))

	return &fixture{
		root:  filepath.Join(t.TempDir(), "cmos"),
		store: st,
		idx:   New(st, scanner.New(scanner.Options{}), WithClock(func() time.Time { return fixedNow })),
	}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) index(t *testing.T, force bool) Result {
	t.Helper()
	res, err := f.idx.Index(context.Background(), f.root, force)
	require.NoError(t, err)
	return res
}

func counts(r Result) [4]int {
	return [4]int{r.Indexed, r.Skipped, r.Deleted, r.Chunks}
}

func TestIndex_FirstRunAndIdempotence(t *testing.T) {
	// Given: two documents
	f := newFixture(t, "")
	f.write(t, "docs/a.md", "# Alpha\n\nFirst para.\n\nSecond para.")
	f.write(t, "research/b.txt", "only one")

	// When: indexing twice
	first := f.index(t, false)
	second := f.index(t, false)

	// Then: the second run changes nothing
	assert.Equal(t, [4]int{2, 0, 0, 3}, counts(first))
	assert.Equal(t, [4]int{0, 2, 0, 0}, counts(second))
}

func TestIndex_Reconciliation(t *testing.T) {
	f := newFixture(t, "")
	f.write(t, "docs/a.md", "keep me")
	f.write(t, "docs/b.md", "remove me")
	f.index(t, false)

	require.NoError(t, os.Remove(filepath.Join(f.root, "docs", "b.md")))
	res := f.index(t, false)

	assert.Equal(t, [4]int{0, 1, 1, 0}, counts(res))
	matches, err := f.store.Match(context.Background(), "remove", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndex_FingerprintSensitivity(t *testing.T) {
	f := newFixture(t, "")
	f.write(t, "docs/a.md", "version one")
	f.write(t, "docs/b.md", "untouched")
	f.index(t, false)

	// When: a single byte changes
	f.write(t, "docs/a.md", "version onE")
	res := f.index(t, false)

	// Then: exactly that file is re-indexed
	assert.Equal(t, [4]int{1, 1, 0, 1}, counts(res))
}

func TestIndex_ForceRewritesAll(t *testing.T) {
	f := newFixture(t, "")
	f.write(t, "docs/a.md", "a\n\nb")
	f.write(t, "docs/b.md", "c")
	f.index(t, false)

	res := f.index(t, true)

	assert.Equal(t, [4]int{2, 0, 0, 3}, counts(res))
	st, err := f.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Chunks, "force must replace, not duplicate, chunks")
}

func TestIndex_MissingRoot(t *testing.T) {
	f := newFixture(t, "")

	res, err := f.idx.Index(context.Background(), filepath.Join(f.root, "absent"), false)

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestIndex_SourceMetadata(t *testing.T) {
	f := newFixture(t, "")
	f.write(t, "docs/sprint_plan-notes.md", "no heading here")
	f.write(t, "docs/titled.md", "# Real Title\nbody")
	f.index(t, false)

	require.NoError(t, f.store.WithTx(context.Background(), func(tx *store.Tx) error {
		sources, err := tx.ListSources(context.Background())
		require.NoError(t, err)
		require.Len(t, sources, 2)

		assert.Equal(t, "cmos/docs/sprint_plan-notes.md", sources[0].Path)
		assert.Equal(t, "sprint plan notes", sources[0].Title)
		assert.Equal(t, Fingerprint([]byte("no heading here")), sources[0].Fingerprint)
		assert.Equal(t, "2025-03-04T05:06:07Z", sources[0].LastIndexedTS)
		assert.Equal(t, "Real Title", sources[1].Title)
		return nil
	}))
}

func TestIndex_InvalidUTF8IsLossy(t *testing.T) {
	f := newFixture(t, "")
	f.write(t, "docs/bad.md", "caf\xff\xfee menu")

	res := f.index(t, false)

	assert.Equal(t, 1, res.Indexed)
	matches, err := f.store.Match(context.Background(), "menu", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "cafe menu", matches[0].Text)
}

func TestIndex_MissingSchemaRollsBack(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	defer st.Close()
	root := filepath.Join(t.TempDir(), "cmos")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("x"), 0o644))

	_, err = New(st, scanner.New(scanner.Options{})).Index(context.Background(), root, false)

	assert.Equal(t, kberrors.ErrCodeSchemaMissing, kberrors.GetCode(err))
}

func TestIndex_FileDatabaseLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".cmos", "memory.db")
	f := newFixture(t, dbPath)
	f.write(t, "docs/a.md", "x y")

	// Given: another holder of the index lock
	other := newFileLock(dbPath)
	ok, err := other.tryLock()
	require.NoError(t, err)
	require.True(t, ok)

	// When: indexing
	_, err = f.idx.Index(context.Background(), f.root, false)

	// Then: the run fails fast without writing
	assert.Equal(t, kberrors.ErrCodeIndexLocked, kberrors.GetCode(err))

	require.NoError(t, other.unlock())
	res := f.index(t, false)
	assert.Equal(t, 1, res.Indexed)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Fingerprint(nil))
}
