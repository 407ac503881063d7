package cmd

import (
	"github.com/spf13/cobra"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/output"
)

type statusReport struct {
	Root          string `json:"root"`
	Database      string `json:"database"`
	Sources       int    `json:"sources"`
	Chunks        int    `json:"chunks"`
	LastIndexedTS string `json:"last_indexed_ts,omitempty"`
	Healthy       bool   `json:"healthy"`
	Problem       string `json:"problem,omitempty"`
}

func newStatusCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index size and health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := g.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			report := statusReport{Root: g.cfg.KB.Root, Database: g.cfg.KB.DBPath, Healthy: true}
			if err := st.CheckIntegrity(ctx); err != nil {
				if !kberrors.IsFatal(err) {
					return err
				}
				report.Healthy = false
				report.Problem = err.Error()
			} else {
				stats, err := st.Stats(ctx)
				if err != nil {
					return err
				}
				report.Sources = stats.Sources
				report.Chunks = stats.Chunks
				report.LastIndexedTS = stats.LastIndexedTS
			}

			if format == formatJSON {
				return output.JSON(cmd.OutOrStdout(), report)
			}
			out := output.New(cmd.OutOrStdout())
			out.Header("Knowledge base")
			out.Field("Root", report.Root)
			out.Field("Database", report.Database)
			if !report.Healthy {
				out.Error(report.Problem)
				return nil
			}
			out.Field("Sources", report.Sources)
			out.Field("Chunks", report.Chunks)
			if report.LastIndexedTS != "" {
				out.Field("Last indexed", report.LastIndexedTS)
			}
			out.Success("Index is healthy")
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json")
	return cmd
}
