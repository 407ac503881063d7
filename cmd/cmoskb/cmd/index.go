package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/output"
	"github.com/cmos-dev/cmoskb/internal/watcher"
)

type indexOptions struct {
	force  bool
	watch  bool
	format string
}

func newIndexCmd(g *globals) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bring the full-text index up to date",
		Long: `Scan docs/ and research/ under the knowledge base root and update the
index. Unchanged files are skipped, changed files are re-segmented and
files that disappeared are removed.

Examples:
  cmoskb index
  cmoskb index --force
  cmoskb index --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			return runIndex(cmd.Context(), cmd, g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Re-process every file even when unchanged")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and re-index on file changes")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, g *globals, opts indexOptions) error {
	st, err := g.openStore(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	idx := g.indexer(st)
	res, err := idx.Index(ctx, g.cfg.KB.Root, opts.force)
	if err != nil {
		return err
	}
	if err := printIndexResult(cmd, opts.format, res); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return watchAndIndex(ctx, cmd, g, idx, opts.format)
}

func printIndexResult(cmd *cobra.Command, format string, res index.Result) error {
	if format == formatJSON {
		return output.JSON(cmd.OutOrStdout(), res)
	}
	out := output.New(cmd.OutOrStdout())
	out.Successf("Indexed %d, skipped %d, deleted %d (%d chunks) in %s",
		res.Indexed, res.Skipped, res.Deleted, res.Chunks, res.Duration.Round(time.Millisecond))
	return nil
}

// watchAndIndex runs one incremental pass per debounced batch until ctx
// is canceled.
func watchAndIndex(ctx context.Context, cmd *cobra.Command, g *globals, idx *index.Indexer, format string) error {
	debounce, err := g.cfg.WatchDebounce()
	if err != nil {
		return err
	}
	sc := g.scanner()
	w, err := watcher.New(watcher.Options{Debounce: debounce, Eligible: sc.Eligible})
	if err != nil {
		return kberrors.InternalError("failed to start watcher", err)
	}
	defer func() { _ = w.Stop() }()

	dirs := sc.SourceDirs(g.cfg.KB.Root)
	out := output.New(cmd.ErrOrStderr())
	out.Successf("Watching %d directories under %s (Ctrl+C to stop)", len(dirs), g.cfg.KB.Root)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := w.Start(egCtx, dirs); err != nil && !errors.Is(err, context.Canceled) {
			return kberrors.InternalError("watcher stopped", err)
		}
		return nil
	})
	eg.Go(func() error {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-egCtx.Done():
				return nil
			case err := <-w.Errors():
				slog.Warn("watch_error", slog.String("error", err.Error()))
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				slog.Info("watch_batch", slog.Int("events", len(batch)))
				res, err := idx.Index(egCtx, g.cfg.KB.Root, false)
				if err != nil {
					if kberrors.IsFatal(err) {
						return err
					}
					out.Error(fmt.Sprintf("re-index failed: %s", err))
					continue
				}
				if err := printIndexResult(cmd, format, res); err != nil {
					return err
				}
			}
		}
	})
	return eg.Wait()
}
