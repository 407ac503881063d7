package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/mcp"
)

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the knowledge base over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
kb_search, kb_recall, kb_index and kb_status tools.

Logs go to ~/.cmoskb/logs/cmoskb.log since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			srv, err := mcp.NewServer(mcp.Deps{
				Store:       st,
				Indexer:     g.indexer(st),
				Engine:      g.engine(st),
				Recall:      g.recallCache(),
				Root:        g.cfg.KB.Root,
				SearchLimit: g.cfg.Search.DefaultLimit,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
