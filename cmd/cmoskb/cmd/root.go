// Package cmd provides the CLI commands for cmoskb.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmos-dev/cmoskb/internal/config"
	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/logging"
	"github.com/cmos-dev/cmoskb/internal/profiling"
	"github.com/cmos-dev/cmoskb/pkg/version"
)

// globals holds persistent flags and state shared by subcommands.
type globals struct {
	debug   bool
	project string
	profile profiling.Options

	cfg        *config.Config
	projectDir string
	session    *profiling.Session
	logCleanup func()
}

// NewRootCmd creates the root command for the cmoskb CLI.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "cmoskb",
		Short: "Local full-text knowledge base for project docs",
		Long: `cmoskb indexes the markdown and text files under the knowledge base
root (docs/ and research/) into SQLite FTS5 and answers ranked queries.

A heuristic recall path reads the files directly and works without an index.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: g.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return g.teardown()
		},
	}
	cmd.SetVersionTemplate("cmoskb version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging to ~/.cmoskb/logs/")
	cmd.PersistentFlags().StringVar(&g.project, "project", "", "Project directory (default: nearest directory with .cmoskb.yaml or .git)")
	cmd.PersistentFlags().StringVar(&g.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&g.profile.Heap, "profile-mem", "", "Write heap profile to file")
	cmd.PersistentFlags().StringVar(&g.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newInitCmd(g))
	cmd.AddCommand(newIndexCmd(g))
	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newRecallCmd(g))
	cmd.AddCommand(newValidateCmd(g))
	cmd.AddCommand(newStatusCmd(g))
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration, then logging, then profiling.
func (g *globals) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir := g.project
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		if dir, err = config.FindProjectRoot(wd); err != nil {
			return err
		}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.projectDir = dir

	if err := g.setupLogging(cmd.Name()); err != nil {
		return err
	}

	if g.profile.Enabled() {
		if g.session, err = profiling.Start(g.profile); err != nil {
			return err
		}
	}
	return nil
}

func (g *globals) setupLogging(command string) error {
	var logCfg logging.Config
	switch {
	case command == "serve":
		// stdout carries the protocol
		logCfg = logging.MCPConfig(g.cfg.Log.Level)
		if g.debug {
			logCfg.Level = "debug"
		}
	case g.debug:
		logCfg = logging.DebugConfig()
	default:
		logCfg = logging.DefaultConfig()
		logCfg.Level = g.cfg.Log.Level
		if logging.ParseLevel(logCfg.Level) < slog.LevelWarn {
			logCfg.Level = "warn"
		}
	}
	logCfg.MaxSizeMB = g.cfg.Log.MaxSizeMB
	logCfg.MaxFiles = g.cfg.Log.MaxFiles

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	g.logCleanup = cleanup
	slog.Debug("config_loaded",
		slog.String("project", g.projectDir),
		slog.String("root", g.cfg.KB.Root),
		slog.String("db", g.cfg.KB.DBPath))
	return nil
}

func (g *globals) teardown() error {
	err := g.session.Stop()
	g.session = nil
	if g.logCleanup != nil {
		g.logCleanup()
		g.logCleanup = nil
	}
	return err
}

// Execute runs the root command, canceling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(os.Stderr, kberrors.FormatForCLI(err))
	}
	return err
}
