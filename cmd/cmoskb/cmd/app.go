package cmd

import (
	"context"
	"fmt"

	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/scanner"
	"github.com/cmos-dev/cmoskb/internal/search"
	"github.com/cmos-dev/cmoskb/internal/store"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (supported: text, json)", format)
	}
	return nil
}

func (g *globals) scanner() *scanner.Scanner {
	return scanner.New(scanner.Options{
		Extensions: g.cfg.KB.Extensions,
		SourceDirs: g.cfg.KB.SourceDirs,
	})
}

// openStore opens the configured database. With ensure set the schema
// is created when missing.
func (g *globals) openStore(ctx context.Context, ensure bool) (*store.Store, error) {
	st, err := store.Open(g.cfg.KB.DBPath)
	if err != nil {
		return nil, err
	}
	if ensure {
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return st, nil
}

func (g *globals) indexer(st *store.Store) *index.Indexer {
	return index.New(st, g.scanner())
}

func (g *globals) engine(st *store.Store) *search.Engine {
	return search.New(st, search.WithSnippetLimit(g.cfg.Search.SnippetLimit))
}

func (g *globals) recallCache() *recall.Cache {
	return recall.New(g.cfg.Recall.CacheRoots,
		recall.WithScanner(g.scanner()),
		recall.WithExcerptLimit(g.cfg.Search.SnippetLimit),
		recall.WithWeights(recall.Weights{
			FuzzyThreshold: g.cfg.Recall.FuzzyThreshold,
			SubstringBonus: g.cfg.Recall.SubstringBonus,
			TokenBonus:     g.cfg.Recall.TokenBonus,
		}))
}
