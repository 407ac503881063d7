package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/search"
	"github.com/cmos-dev/cmoskb/internal/store"
	"github.com/cmos-dev/cmoskb/pkg/retriever"
)

// SearchInput is the kb_search argument schema.
type SearchInput struct {
	Query string `json:"query" jsonschema:"full-text query; bare words, quoted phrases, OR and prefix* are supported"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 5"`
}

// SearchOutput is the kb_search result schema.
type SearchOutput struct {
	Results []retriever.RankedHit `json:"results" jsonschema:"ranked paragraphs, best first"`
}

// RecallInput is the kb_recall argument schema.
type RecallInput struct {
	Query   string `json:"query" jsonschema:"free-text query"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 5"`
	Rebuild bool   `json:"rebuild,omitempty" jsonschema:"re-read every file before scoring"`
}

// RecallOutput is the kb_recall result schema.
type RecallOutput struct {
	Results []RecalledParagraph `json:"results" jsonschema:"recalled paragraphs, best first"`
}

// RecalledParagraph is one kb_recall hit.
type RecalledParagraph struct {
	Path    string  `json:"path" jsonschema:"file path relative to the knowledge base parent directory"`
	Title   string  `json:"title"`
	Excerpt string  `json:"excerpt" jsonschema:"shortened paragraph, prefixed with its section"`
	Score   float64 `json:"score"`
	Line    int     `json:"line,omitempty" jsonschema:"1-based line of the paragraph"`
}

// IndexInput is the kb_index argument schema.
type IndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"re-process every file even when unchanged"`
}

// IndexOutput is the kb_index result schema.
type IndexOutput struct {
	Indexed    int   `json:"indexed"`
	Skipped    int   `json:"skipped"`
	Deleted    int   `json:"deleted"`
	Chunks     int   `json:"chunks"`
	DurationMS int64 `json:"duration_ms"`
}

// StatusInput is the kb_status argument schema.
type StatusInput struct{}

// StatusOutput is the kb_status result schema.
type StatusOutput struct {
	Root          string `json:"root"`
	Sources       int    `json:"sources"`
	Chunks        int    `json:"chunks"`
	LastIndexedTS string `json:"last_indexed_ts,omitempty"`
}

func text(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: s}}}
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = s.deps.SearchLimit
	}

	start := time.Now()
	hits, err := s.retriever.Retrieve(ctx, in.Query, limit)
	if err != nil {
		s.logger.Warn("mcp_search_failed", slog.String("query", in.Query), slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}
	s.logger.Debug("mcp_search",
		slog.String("query", in.Query),
		slog.Int("results", len(hits)),
		slog.Duration("duration", time.Since(start)))

	if hits == nil {
		hits = []retriever.RankedHit{}
	}
	return text(FormatHits(in.Query, hits)), SearchOutput{Results: hits}, nil
}

func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, in RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, RecallOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if s.deps.Recall == nil {
		return nil, RecallOutput{}, &MCPError{Code: ErrCodeInternalError, Message: "recall is not configured"}
	}
	limit := in.Limit
	if limit <= 0 {
		limit = s.deps.RecallLimit
	}

	if in.Rebuild {
		if _, err := s.deps.Recall.Rebuild(ctx, s.deps.Root); err != nil {
			return nil, RecallOutput{}, MapError(err)
		}
	}
	results, err := s.deps.Recall.Recall(ctx, s.deps.Root, in.Query, limit)
	if err != nil {
		return nil, RecallOutput{}, MapError(err)
	}
	return text(FormatRecall(in.Query, results)), toRecallOutput(results), nil
}

func (s *Server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest, in IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	res, err := s.deps.Indexer.Index(ctx, s.deps.Root, in.Force)
	if err != nil {
		return nil, IndexOutput{}, MapError(err)
	}
	stats, err := s.deps.Store.Stats(ctx)
	if err != nil {
		return nil, IndexOutput{}, MapError(err)
	}
	return text(FormatIndex(res, stats)), toIndexOutput(res), nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	stats, err := s.deps.Store.Stats(ctx)
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}
	out := toStatusOutput(s.deps.Root, stats)
	msg := "Index is empty. Call kb_index first."
	if out.Sources > 0 {
		msg = fmt.Sprintf("Index holds %d sources and %d chunks, last updated %s.",
			out.Sources, out.Chunks, out.LastIndexedTS)
	}
	return text(msg), out, nil
}

func toIndexOutput(r index.Result) IndexOutput {
	return IndexOutput{
		Indexed:    r.Indexed,
		Skipped:    r.Skipped,
		Deleted:    r.Deleted,
		Chunks:     r.Chunks,
		DurationMS: r.Duration.Milliseconds(),
	}
}

func toRecallOutput(results []recall.Result) RecallOutput {
	out := RecallOutput{Results: make([]RecalledParagraph, len(results))}
	for i, r := range results {
		out.Results[i] = RecalledParagraph{
			Path:    r.Path,
			Title:   r.Title,
			Excerpt: r.Excerpt,
			Score:   search.Round4(r.Score),
			Line:    r.Line,
		}
	}
	return out
}

func toStatusOutput(root string, st store.Stats) StatusOutput {
	return StatusOutput{
		Root:          root,
		Sources:       st.Sources,
		Chunks:        st.Chunks,
		LastIndexedTS: st.LastIndexedTS,
	}
}
