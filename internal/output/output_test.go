package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BufferIsPlain(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Index complete")

	assert.Equal(t, "✓ Index complete\n", buf.String())
	assert.False(t, IsTTY(buf))
}

func TestWriter_Messages(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithStyles(buf, PlainStyles())

	w.Header("Knowledge base")
	w.Warningf("%d files skipped", 2)
	w.Error("failed")
	w.Field("Sources", 4)

	out := buf.String()
	assert.Contains(t, out, "Knowledge base\n")
	assert.Contains(t, out, "! 2 files skipped\n")
	assert.Contains(t, out, "✗ failed\n")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, " 4\n")
}

func TestWriter_Results(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithStyles(buf, PlainStyles())

	w.Results([]Item{
		{Path: "cmos/docs/a.md", Title: "Alpha", Section: "Setup", Line: 3, Text: "Install it.", Score: 1},
		{Path: "cmos/docs/b.md", Title: "Beta", Text: "Other.", Score: 0.123456},
	})

	out := buf.String()
	assert.Contains(t, out, "1. Alpha (1.0000)\n")
	assert.Contains(t, out, "   cmos/docs/a.md:3\n")
	assert.Contains(t, out, "   § Setup\n")
	assert.Contains(t, out, "2. Beta (0.1235)\n")
	assert.Contains(t, out, "   cmos/docs/b.md\n")
}

func TestWriter_ResultsEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	NewWithStyles(buf, PlainStyles()).Results(nil)
	assert.Equal(t, "! No results.\n", buf.String())
}

func TestJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, JSON(buf, map[string]int{"indexed": 1}))
	assert.Equal(t, "{\n  \"indexed\": 1\n}\n", buf.String())
}
