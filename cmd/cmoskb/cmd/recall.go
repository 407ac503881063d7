package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/output"
	"github.com/cmos-dev/cmoskb/internal/recall"
)

type recallOptions struct {
	limit   int
	rebuild bool
	format  string
}

func newRecallCmd(g *globals) *cobra.Command {
	var opts recallOptions

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: "Find paragraphs by reading the files directly",
		Long: `Score every paragraph under the knowledge base root against the query
without using the index. Matches whole-query substrings and individual
words, and falls back to fuzzy similarity for near misses.

Examples:
  cmoskb recall "sprint transition"
  cmoskb recall registry -n 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			ctx := cmd.Context()
			limit := opts.limit
			if limit <= 0 {
				limit = recall.DefaultLimit
			}

			cache := g.recallCache()
			if opts.rebuild {
				if _, err := cache.Rebuild(ctx, g.cfg.KB.Root); err != nil {
					return err
				}
			}
			results, err := cache.Recall(ctx, g.cfg.KB.Root, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			if opts.format == formatJSON {
				if results == nil {
					results = []recall.Result{}
				}
				return output.JSON(cmd.OutOrStdout(), results)
			}
			items := make([]output.Item, len(results))
			for i, r := range results {
				items[i] = output.Item{Path: r.Path, Title: r.Title, Line: r.Line, Text: r.Excerpt, Score: r.Score}
			}
			output.New(cmd.OutOrStdout()).Results(items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", recall.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.rebuild, "rebuild", false, "Re-read every file before scoring")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	return cmd
}
