package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/config"
	"github.com/cmos-dev/cmoskb/internal/output"
	"github.com/cmos-dev/cmoskb/internal/scanner"
)

func newInitCmd(g *globals) *cobra.Command {
	var writeConfig bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the knowledge base database",
		Long: `Create the SQLite database and its tables if they do not exist.

With --write-config a .cmoskb.yaml holding the defaults is written to the
project directory, unless one already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			st, err := g.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			out.Successf("Database ready at %s", g.cfg.KB.DBPath)

			if !scanner.Exists(g.cfg.KB.Root) {
				out.Warningf("Knowledge base root %s does not exist yet", g.cfg.KB.Root)
			}

			if writeConfig {
				path := filepath.Join(g.projectDir, config.ProjectConfigNames[0])
				if _, err := os.Stat(path); err == nil {
					out.Warningf("%s already exists, leaving it unchanged", path)
					return nil
				}
				if err := config.NewConfig().WriteYAML(path); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				out.Successf("Wrote %s", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "Also write a default .cmoskb.yaml")
	return cmd
}
