// Package index reconciles a knowledge base directory tree with the
// persisted sources and chunks.
//
// Each run fingerprints every eligible file, re-segments files whose
// fingerprint changed, and deletes sources whose files disappeared.
// A run is one transaction: it either applies completely or not at all.
package index

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/scanner"
	"github.com/cmos-dev/cmoskb/internal/segment"
	"github.com/cmos-dev/cmoskb/internal/store"
)

// Result counts what a run did. Indexed+Skipped equals the number of
// eligible files on disk.
type Result struct {
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Deleted  int           `json:"deleted"`
	Chunks   int           `json:"chunks"` // chunks written for indexed files only
	Duration time.Duration `json:"-"`
}

// Indexer runs incremental index passes against a Store.
type Indexer struct {
	store   *store.Store
	scanner *scanner.Scanner
	now     func() time.Time
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(i *Indexer) {
		i.now = now
	}
}

// New creates an Indexer. The store's schema must already exist.
func New(st *store.Store, sc *scanner.Scanner, opts ...Option) *Indexer {
	i := &Indexer{store: st, scanner: sc, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type existing struct {
	id          int64
	fingerprint string
}

// Index reconciles the files under root with the store. A nonexistent
// root yields zero counts without touching storage. With force set,
// every file is rewritten even if its fingerprint is unchanged.
func (i *Indexer) Index(ctx context.Context, root string, force bool) (Result, error) {
	start := time.Now()

	absRoot, err := scanner.ResolveRoot(root)
	if err != nil {
		return Result{}, kberrors.New(kberrors.ErrCodeInvalidPath, "invalid knowledge base root", err)
	}
	if !scanner.Exists(absRoot) {
		slog.Info("index_root_missing", slog.String("root", absRoot))
		return Result{}, nil
	}

	if path := i.store.Path(); path != "" {
		lock := newFileLock(path)
		ok, err := lock.tryLock()
		if err != nil {
			return Result{}, kberrors.StorageError("failed to lock index", err)
		}
		if !ok {
			return Result{}, kberrors.New(kberrors.ErrCodeIndexLocked, "another index run holds "+lock.path, nil).
				WithSuggestion("wait for the running index to finish")
		}
		defer func() {
			if err := lock.unlock(); err != nil {
				slog.Warn("index_unlock_failed", slog.String("error", err.Error()))
			}
		}()
	}

	files, err := i.scanner.Scan(ctx, absRoot)
	if err != nil {
		return Result{}, kberrors.New(kberrors.ErrCodeIndexFailed, "failed to enumerate sources", err)
	}

	slog.Info("index_started",
		slog.String("root", absRoot),
		slog.Int("files", len(files)),
		slog.Bool("force", force))

	var res Result
	ts := store.FormatTimestamp(i.now())

	err = i.store.WithTx(ctx, func(tx *store.Tx) error {
		res = Result{}

		sources, err := tx.ListSources(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]existing, len(sources))
		for _, src := range sources {
			known[src.Path] = existing{id: src.ID, fingerprint: src.Fingerprint}
		}

		seen := make(map[string]bool, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			seen[f.Path] = true

			data, err := os.ReadFile(f.AbsPath)
			if err != nil {
				return kberrors.New(kberrors.ErrCodeFileRead, "failed to read "+f.Path, err).
					WithDetail("path", f.Path)
			}
			fp := Fingerprint(data)

			if prev, ok := known[f.Path]; ok && !force && prev.fingerprint == fp {
				res.Skipped++
				continue
			}

			title, paragraphs := segment.Extract(decode(f.Path, data))
			if title == "" {
				title = segment.FallbackTitle(f.AbsPath)
			}

			id, err := tx.UpsertSource(ctx, f.Path, title, fp, ts)
			if err != nil {
				return err
			}
			n, err := tx.ReplaceChunks(ctx, id, paragraphs)
			if err != nil {
				return err
			}
			res.Indexed++
			res.Chunks += n
		}

		for _, src := range sources {
			if seen[src.Path] {
				continue
			}
			if err := tx.DeleteSource(ctx, src.ID); err != nil {
				return err
			}
			res.Deleted++
		}
		return nil
	})
	if err != nil {
		if kberrors.IsFatal(err) {
			return Result{}, err
		}
		return Result{}, kberrors.New(kberrors.ErrCodeIndexFailed, "index failed, no changes applied", err)
	}

	res.Duration = time.Since(start)
	slog.Info("index_complete",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Int("deleted", res.Deleted),
		slog.Int("chunks", res.Chunks),
		slog.Int64("duration_ms", res.Duration.Milliseconds()))
	return res, nil
}

// Fingerprint returns the SHA-1 hex digest of data.
func Fingerprint(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// decode returns data as text, dropping invalid UTF-8 sequences.
func decode(path string, data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	slog.Warn("index_invalid_utf8", slog.String("path", path))
	return string(bytes.ToValidUTF8(data, nil))
}
