package mcp

import (
	"fmt"
	"strings"

	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/store"
	"github.com/cmos-dev/cmoskb/pkg/retriever"
)

// FormatHits renders ranked hits as markdown for the client.
func FormatHits(query string, hits []retriever.RankedHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results for %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Results for %q\n\n", query)
	for i, h := range hits {
		loc := h.Path
		if h.Line > 0 {
			loc = fmt.Sprintf("%s:%d", h.Path, h.Line)
		}
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, h.Title)
		fmt.Fprintf(&sb, "`%s` (score: %.2f, via %s)\n", loc, h.Score, h.Source)
		if h.Section != "" {
			fmt.Fprintf(&sb, "Section: %s\n", h.Section)
		}
		sb.WriteString("\n> ")
		sb.WriteString(h.Snippet)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatRecall renders recall results as markdown.
func FormatRecall(query string, results []recall.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("Nothing recalled for %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Recall for %q\n\n", query)
	for _, r := range results {
		fmt.Fprintf(&sb, "- **%s** `%s:%d` (%.2f): %s\n", r.Title, r.Path, r.Line, r.Score, r.Excerpt)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatIndex summarizes an index run.
func FormatIndex(r index.Result, stats store.Stats) string {
	return fmt.Sprintf(
		"Indexed %d, skipped %d, deleted %d (%d chunks written).\nIndex holds %d sources and %d chunks.",
		r.Indexed, r.Skipped, r.Deleted, r.Chunks, stats.Sources, stats.Chunks)
}
