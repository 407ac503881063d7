// Package segment splits plain-text and markdown documents into
// paragraphs annotated with their first line and nearest heading.
//
// Segmentation is line based. Fenced code blocks are dropped, headings
// start a new section and blank lines end a paragraph. Inline markup is
// left untouched.
package segment

import (
	"path/filepath"
	"strings"
)

// DefaultSnippetLimit is the rune budget for search snippets and recall excerpts.
const DefaultSnippetLimit = 280

// fenceMarker opens and closes a fenced code block.
const fenceMarker = "```"

// Paragraph is one logical block of prose.
type Paragraph struct {
	Text    string // whitespace-collapsed, never empty
	Line    int    // 1-based line of the first contributing line
	Section string // nearest preceding heading, "" when none
}

// segmenter carries the state of a single Extract pass.
type segmenter struct {
	title    string
	hasTitle bool
	section  string
	buffer   []string
	start    int
	out      []Paragraph
}

func (s *segmenter) flush() {
	if len(s.buffer) == 0 {
		return
	}
	text := CollapseSpaces(strings.Join(s.buffer, " "))
	if text != "" {
		s.out = append(s.out, Paragraph{Text: text, Line: s.start, Section: s.section})
	}
	s.buffer = s.buffer[:0]
}

func (s *segmenter) heading(trimmed string) {
	text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))

	// The first "# " heading names the document and does not open a section.
	if !s.hasTitle && strings.HasPrefix(trimmed, "# ") && text != "" {
		s.title = text
		s.hasTitle = true
		return
	}
	if text != "" {
		s.section = text
	}
}

// Extract returns the document title and its paragraphs in document
// order. The title is "" when the document has no level-one heading;
// callers substitute FallbackTitle. Extract never fails: input that
// does not look like markdown is treated as plain paragraphs.
func Extract(text string) (string, []Paragraph) {
	s := &segmenter{}
	inFence := false

	for i, raw := range splitLines(text) {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(trimmed, fenceMarker):
			s.flush()
			inFence = !inFence
		case inFence:
		case strings.HasPrefix(trimmed, "#"):
			s.flush()
			s.heading(trimmed)
		case trimmed == "":
			s.flush()
		default:
			if len(s.buffer) == 0 {
				s.start = lineNo
			}
			s.buffer = append(s.buffer, trimmed)
		}
	}
	s.flush()

	return s.title, s.out
}

// splitLines splits on "\n" and drops a trailing "\r" from each line.
// A final newline does not produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// CollapseSpaces replaces every run of whitespace with a single space
// and trims both ends.
func CollapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Shorten returns text unchanged when it fits in limit runes. Longer
// text is cut to limit-3 runes, right-trimmed and suffixed with "...".
func Shorten(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := limit - 3
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(string(runes[:cut]), " \t\r\n\v\f") + "..."
}

// FallbackTitle derives a title from a file name: the stem with
// underscores and hyphens turned into spaces.
func FallbackTitle(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(stem)
}
