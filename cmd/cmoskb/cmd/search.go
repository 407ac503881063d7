package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/output"
	"github.com/cmos-dev/cmoskb/internal/search"
)

type searchOptions struct {
	limit  int
	format string
}

func newSearchCmd(g *globals) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the full-text index",
		Long: `Run an FTS5 query against the index and print the best paragraphs.

The query uses SQLite FTS5 syntax: bare words, "quoted phrases", OR, NOT
and prefix* terms.

Examples:
  cmoskb search "trigger registry"
  cmoskb search sprint -n 10
  cmoskb search 'FTS5 OR bm25' --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			return runSearch(cmd.Context(), cmd, g, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, g *globals, query string, opts searchOptions) error {
	limit := opts.limit
	if limit <= 0 {
		limit = g.cfg.Search.DefaultLimit
	}

	st, err := g.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", limit))
	hits, err := g.engine(st).Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		if hits == nil {
			hits = []search.Hit{}
		}
		return output.JSON(cmd.OutOrStdout(), hits)
	}
	items := make([]output.Item, len(hits))
	for i, h := range hits {
		items[i] = output.Item{
			Path: h.Path, Title: h.Title, Section: h.Section,
			Line: h.Line, Text: h.Snippet, Score: h.Score,
		}
	}
	output.New(cmd.OutOrStdout()).Results(items)
	return nil
}
