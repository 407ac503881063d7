package recall

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/scanner"
	"github.com/cmos-dev/cmoskb/internal/segment"
)

// Cache holds segmented snippets per knowledge base root. It is safe
// for concurrent use; callers own its lifetime.
type Cache struct {
	mu           sync.Mutex
	entries      *lru.Cache[string, *entry]
	scanner      *scanner.Scanner
	weights      Weights
	excerptLimit int
}

// Option configures a Cache.
type Option func(*Cache)

// WithWeights overrides the scoring constants.
func WithWeights(w Weights) Option {
	return func(c *Cache) {
		c.weights = w
	}
}

// WithExcerptLimit sets the rune budget for excerpts.
func WithExcerptLimit(n int) Option {
	return func(c *Cache) {
		if n > 3 {
			c.excerptLimit = n
		}
	}
}

// WithScanner sets the file enumeration rules.
func WithScanner(sc *scanner.Scanner) Option {
	return func(c *Cache) {
		c.scanner = sc
	}
}

// New creates an empty Cache that remembers up to roots roots.
func New(roots int, opts ...Option) *Cache {
	if roots <= 0 {
		roots = DefaultCacheRoots
	}
	entries, _ := lru.New[string, *entry](roots)
	c := &Cache{
		entries:      entries,
		scanner:      scanner.New(scanner.Options{}),
		weights:      DefaultWeights(),
		excerptLimit: segment.DefaultSnippetLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recall ranks cached snippets under root against query. The cache for
// root is rebuilt first if any eligible file was added, removed or
// modified. A limit of zero or less returns every scoring snippet.
func (c *Cache) Recall(ctx context.Context, root, query string, limit int) ([]Result, error) {
	normalized := segment.CollapseSpaces(query)
	if normalized == "" {
		return nil, kberrors.New(kberrors.ErrCodeQueryEmpty, "Query must include at least one term.", nil)
	}
	tokens := Tokenize(normalized)
	if len(tokens) == 0 {
		return nil, kberrors.ValidationError("Query must include at least one alphanumeric term.", nil).
			WithDetail("query", normalized)
	}

	snippets, err := c.load(ctx, root)
	if err != nil {
		return nil, err
	}

	sc := newScorer(normalized, tokens, c.weights)
	type scored struct {
		score float64
		snip  *snippet
	}
	var ranked []scored
	for i := range snippets {
		if s := sc.score(snippets[i].lower); s > 0 {
			ranked = append(ranked, scored{score: s, snip: &snippets[i]})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.snip.relPath != b.snip.relPath {
			return a.snip.relPath < b.snip.relPath
		}
		return a.snip.line < b.snip.line
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]Result, len(ranked))
	for i, r := range ranked {
		excerpt := segment.Shorten(r.snip.text, c.excerptLimit)
		if r.snip.section != "" && !strings.Contains(excerpt, r.snip.section) {
			excerpt = r.snip.section + ": " + excerpt
		}
		results[i] = Result{
			Path:    r.snip.relPath,
			Title:   r.snip.title,
			Excerpt: excerpt,
			Score:   r.score,
			Line:    r.snip.line,
		}
	}
	return results, nil
}

// Rebuild discards the cached snippets for root, re-reads every
// eligible file and returns the new snippet count.
func (c *Cache) Rebuild(ctx context.Context, root string) (int, error) {
	absRoot, err := scanner.ResolveRoot(root)
	if err != nil {
		return 0, kberrors.New(kberrors.ErrCodeInvalidPath, "invalid knowledge base root", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.scanner.Scan(ctx, absRoot)
	if err != nil {
		return 0, kberrors.StorageError("failed to enumerate sources", err)
	}
	e, err := c.build(files)
	if err != nil {
		return 0, err
	}
	c.entries.Add(absRoot, e)
	return len(e.snippets), nil
}

// Len returns the number of roots currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) load(ctx context.Context, root string) ([]snippet, error) {
	absRoot, err := scanner.ResolveRoot(root)
	if err != nil {
		return nil, kberrors.New(kberrors.ErrCodeInvalidPath, "invalid knowledge base root", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.scanner.Scan(ctx, absRoot)
	if err != nil {
		return nil, kberrors.StorageError("failed to enumerate sources", err)
	}
	if cached, ok := c.entries.Get(absRoot); ok && cached.sig.equal(signatureOf(files)) {
		return cached.snippets, nil
	}

	e, err := c.build(files)
	if err != nil {
		return nil, err
	}
	c.entries.Add(absRoot, e)
	return e.snippets, nil
}

// build segments every file. The signature covers all eligible files,
// including those that produced no snippets.
func (c *Cache) build(files []scanner.FileInfo) (*entry, error) {
	var snippets []snippet
	for _, f := range files {
		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, kberrors.New(kberrors.ErrCodeFileRead, "failed to read "+f.Path, err).
				WithDetail("path", f.Path)
		}
		if !utf8.Valid(data) {
			data = bytes.ToValidUTF8(data, nil)
		}

		title, paragraphs := segment.Extract(string(data))
		if title == "" {
			title = segment.FallbackTitle(f.AbsPath)
		}
		for _, p := range paragraphs {
			snippets = append(snippets, snippet{
				relPath: f.Path,
				title:   title,
				section: p.Section,
				line:    p.Line,
				text:    p.Text,
				lower:   strings.ToLower(p.Text),
			})
		}
	}

	slog.Debug("recall_cache_rebuilt",
		slog.Int("files", len(files)),
		slog.Int("snippets", len(snippets)))
	return &entry{snippets: snippets, sig: signatureOf(files)}, nil
}

func signatureOf(files []scanner.FileInfo) signature {
	sig := make(signature, len(files))
	for _, f := range files {
		sig[f.AbsPath] = f.ModTime
	}
	return sig
}
