// Package output formats CLI results for terminals, pipes and JSON
// consumers.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer prints styled CLI output. Color is used only on terminals and
// only when NO_COLOR is unset.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer for out, picking styles from the terminal.
func New(out io.Writer) *Writer {
	if IsTTY(out) && !NoColor() {
		return NewWithStyles(out, ColorStyles())
	}
	return NewWithStyles(out, PlainStyles())
}

// NewWithStyles creates a Writer with explicit styles.
func NewWithStyles(out io.Writer, styles Styles) *Writer {
	return &Writer{out: out, styles: styles}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NoColor reports whether NO_COLOR is set.
func NoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// Console write errors are ignored throughout.

func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+msg))
}

func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render("! "+msg))
}

func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render("✗ "+msg))
}

// Field prints an aligned "label: value" line.
func (w *Writer) Field(label string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %s %v\n", w.styles.Label.Render(fmt.Sprintf("%-14s", label+":")), value)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Item is a single ranked entry for Results.
type Item struct {
	Path    string
	Title   string
	Section string
	Line    int
	Text    string
	Score   float64
}

// Results prints ranked items, numbered from 1.
func (w *Writer) Results(items []Item) {
	if len(items) == 0 {
		w.Warning("No results.")
		return
	}
	for i, it := range items {
		loc := it.Path
		if it.Line > 0 {
			loc = fmt.Sprintf("%s:%d", it.Path, it.Line)
		}
		_, _ = fmt.Fprintf(w.out, "%d. %s %s\n", i+1,
			w.styles.Header.Render(it.Title),
			w.styles.Score.Render(fmt.Sprintf("(%.4f)", it.Score)))
		_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Dim.Render(loc))
		if it.Section != "" {
			_, _ = fmt.Fprintf(w.out, "   %s %s\n", w.styles.Label.Render("§"), it.Section)
		}
		_, _ = fmt.Fprintf(w.out, "   %s\n", it.Text)
	}
}

// JSON writes v as indented JSON followed by a newline.
func JSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
