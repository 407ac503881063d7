package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/output"
)

func newValidateCmd(g *globals) *cobra.Command {
	var noRefresh bool
	var limit int

	cmd := &cobra.Command{
		Use:   "validate [query...]",
		Short: "Refresh the index and run sanity queries",
		Long: `Run an incremental index pass, then each validation query, and print a
JSON report of the hits. Queries default to search.validation_queries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if !noRefresh {
				res, err := g.indexer(st).Index(ctx, g.cfg.KB.Root, false)
				if err != nil {
					return err
				}
				slog.Info("validate_refreshed", slog.Int("indexed", res.Indexed), slog.Int("deleted", res.Deleted))
			}

			queries := args
			if len(queries) == 0 {
				queries = g.cfg.Search.ValidationQueries
			}
			if limit <= 0 {
				limit = g.cfg.Search.ValidationLimit
			}
			reports, err := g.engine(st).Validate(ctx, queries, limit)
			if err != nil {
				return err
			}
			return output.JSON(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip the index pass")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Hits per query (default from config)")
	return cmd
}
