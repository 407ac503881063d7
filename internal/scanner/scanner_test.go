package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestScan_AllowListAndOrder(t *testing.T) {
	// Given: a knowledge base root with mixed files
	root := filepath.Join(t.TempDir(), "cmos")
	writeFile(t, filepath.Join(root, "docs", "b.md"), "b")
	writeFile(t, filepath.Join(root, "docs", "a.TXT"), "a")
	writeFile(t, filepath.Join(root, "docs", "nested", "c.rst"), "c")
	writeFile(t, filepath.Join(root, "docs", "image.png"), "x")
	writeFile(t, filepath.Join(root, "research", "r.markdown"), "r")
	writeFile(t, filepath.Join(root, "other", "ignored.md"), "o")

	// When: scanning
	files, err := New(Options{}).Scan(context.Background(), root)

	// Then: only eligible files are returned, keyed relative to the root's parent
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cmos/docs/a.TXT",
		"cmos/docs/b.md",
		"cmos/docs/nested/c.rst",
		"cmos/research/r.markdown",
	}, paths(files))
	assert.Equal(t, "docs/b.md", files[1].RelPath)
	assert.True(t, filepath.IsAbs(files[1].AbsPath))
	assert.Equal(t, int64(1), files[1].Size)
	assert.False(t, files[1].ModTime.IsZero())
}

func TestScan_MissingDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "kb")
	writeFile(t, filepath.Join(root, "research", "only.md"), "x")

	files, err := New(Options{}).Scan(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"kb/research/only.md"}, paths(files))
}

func TestScan_MissingRoot(t *testing.T) {
	files, err := New(Options{}).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_CustomOptions(t *testing.T) {
	root := filepath.Join(t.TempDir(), "kb")
	writeFile(t, filepath.Join(root, "notes", "a.org"), "x")
	writeFile(t, filepath.Join(root, "notes", "b.md"), "x")

	files, err := New(Options{Extensions: []string{"org"}, SourceDirs: []string{"notes"}}).
		Scan(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"kb/notes/a.org"}, paths(files))
}

func TestScan_Canceled(t *testing.T) {
	root := filepath.Join(t.TempDir(), "kb")
	writeFile(t, filepath.Join(root, "docs", "a.md"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Scan(ctx, root)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEligible(t *testing.T) {
	s := New(Options{})
	assert.True(t, s.Eligible("x/README.MD"))
	assert.True(t, s.Eligible("notes.rst"))
	assert.False(t, s.Eligible("main.go"))
	assert.False(t, s.Eligible("Makefile"))
}
