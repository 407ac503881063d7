package search

import (
	"context"
	"log/slog"
	"math"
	"time"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/segment"
	"github.com/cmos-dev/cmoskb/internal/store"
)

// Engine runs FTS5 queries through a Store.
type Engine struct {
	store        *store.Store
	snippetLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnippetLimit sets the rune budget for snippets.
func WithSnippetLimit(n int) Option {
	return func(e *Engine) {
		if n > 3 {
			e.snippetLimit = n
		}
	}
}

// New creates an Engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, snippetLimit: segment.DefaultSnippetLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns chunks matching query, best first. The query uses FTS5
// syntax after whitespace is collapsed. A limit of zero or less returns
// every match.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	normalized := segment.CollapseSpaces(query)
	if normalized == "" {
		return nil, kberrors.New(kberrors.ErrCodeQueryEmpty, "Query must include at least one term.", nil)
	}

	start := time.Now()
	matches, err := e.store.Match(ctx, normalized, limit)
	if err != nil {
		if kberrors.IsInvalidInput(err) || kberrors.IsFatal(err) {
			return nil, err
		}
		return nil, kberrors.New(kberrors.ErrCodeSearchFailed, "search failed", err).
			WithDetail("query", normalized)
	}

	hits := make([]Hit, len(matches))
	for i, m := range matches {
		title := m.Title
		if title == "" {
			title = m.Path
		}
		hits[i] = Hit{
			Path:    m.Path,
			Title:   title,
			Section: m.Section,
			Line:    m.Line,
			Snippet: segment.Shorten(m.Text, e.snippetLimit),
			Score:   normalizeRank(m.Rank),
		}
	}

	slog.Debug("search_complete",
		slog.String("query", normalized),
		slog.Int("results", len(hits)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return hits, nil
}

// Validate runs each query and reports its hits. Empty queries means
// DefaultValidationQueries; a limit of zero means DefaultValidationLimit.
func (e *Engine) Validate(ctx context.Context, queries []string, limit int) ([]ValidationReport, error) {
	if len(queries) == 0 {
		queries = DefaultValidationQueries
	}
	if limit == 0 {
		limit = DefaultValidationLimit
	}

	reports := make([]ValidationReport, 0, len(queries))
	for _, q := range queries {
		hits, err := e.Search(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		if hits == nil {
			hits = []Hit{}
		}
		reports = append(reports, ValidationReport{Query: q, HitCount: len(hits), Hits: hits})
	}
	return reports, nil
}

// normalizeRank maps a raw bm25() value, where lower is better, onto
// (0, 1]. Negative ranks clamp to 1.
func normalizeRank(rank float64) float64 {
	return 1.0 / (1.0 + math.Max(rank, 0))
}
