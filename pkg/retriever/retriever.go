package retriever

import (
	"context"
	"errors"
	"log/slog"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/search"
)

// ErrNilEngine is returned by FromEngine without an engine.
var ErrNilEngine = errors.New("search engine is required")

// ErrNilCache is returned by FromRecall without a cache.
var ErrNilCache = errors.New("recall cache is required")

// ErrNoRetrievers is returned by Fallback without both retrievers.
var ErrNoRetrievers = errors.New("primary and secondary retrievers are required")

// Retriever returns ranked hits for a query.
//
// Implementations must be safe for concurrent use.
type Retriever interface {
	// Retrieve returns at most limit hits, best first. A limit of zero
	// or less returns every hit. No match yields an empty slice.
	Retrieve(ctx context.Context, query string, limit int) ([]RankedHit, error)
}

// RankedHit is the common result shape of both lookup paths.
type RankedHit struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Section string  `json:"section,omitempty"`
	Line    int     `json:"line,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"` // "search" or "recall"
}

type engineRetriever struct {
	engine *search.Engine
}

// FromEngine adapts a search engine.
func FromEngine(e *search.Engine) (Retriever, error) {
	if e == nil {
		return nil, ErrNilEngine
	}
	return &engineRetriever{engine: e}, nil
}

func (r *engineRetriever) Retrieve(ctx context.Context, query string, limit int) ([]RankedHit, error) {
	hits, err := r.engine.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RankedHit, len(hits))
	for i, h := range hits {
		out[i] = RankedHit{
			Path:    h.Path,
			Title:   h.Title,
			Section: h.Section,
			Line:    h.Line,
			Snippet: h.Snippet,
			Score:   search.Round4(h.Score),
			Source:  "search",
		}
	}
	return out, nil
}

type recallRetriever struct {
	cache *recall.Cache
	root  string
}

// FromRecall adapts a recall cache bound to one knowledge base root.
func FromRecall(c *recall.Cache, root string) (Retriever, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	return &recallRetriever{cache: c, root: root}, nil
}

func (r *recallRetriever) Retrieve(ctx context.Context, query string, limit int) ([]RankedHit, error) {
	results, err := r.cache.Recall(ctx, r.root, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RankedHit, len(results))
	for i, res := range results {
		out[i] = RankedHit{
			Path:    res.Path,
			Title:   res.Title,
			Line:    res.Line,
			Snippet: res.Excerpt,
			Score:   search.Round4(res.Score),
			Source:  "recall",
		}
	}
	return out, nil
}

type fallbackRetriever struct {
	primary   Retriever
	secondary Retriever
}

// Fallback returns a Retriever that uses primary and switches to
// secondary only when primary fails for a reason other than the query.
func Fallback(primary, secondary Retriever) (Retriever, error) {
	if primary == nil || secondary == nil {
		return nil, ErrNoRetrievers
	}
	return &fallbackRetriever{primary: primary, secondary: secondary}, nil
}

func (r *fallbackRetriever) Retrieve(ctx context.Context, query string, limit int) ([]RankedHit, error) {
	hits, err := r.primary.Retrieve(ctx, query, limit)
	if err == nil || kberrors.IsInvalidInput(err) || ctx.Err() != nil {
		return hits, err
	}
	slog.Warn("retriever_fallback",
		slog.String("error_code", kberrors.GetCode(err)),
		slog.String("error", err.Error()))
	return r.secondary.Retrieve(ctx, query, limit)
}
