// Package store persists knowledge base sources and their chunks in
// SQLite with an FTS5 full-text index over chunk text.
package store

import "time"

// TimestampLayout is the UTC layout stored in kb_sources.last_indexed_ts.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Source is one indexed document.
type Source struct {
	ID            int64
	Path          string // reconciliation key, unique
	Title         string
	Fingerprint   string // SHA-1 hex of the raw file bytes
	LastIndexedTS string
}

// Chunk is one persisted paragraph of a source.
type Chunk struct {
	ID         int64
	SourceID   int64
	OrderIndex int    // 0-based among the source's inserted chunks
	Section    string // "" when the paragraph had no heading
	Line       int
	Text       string
}

// Match is one row produced by a full-text query.
type Match struct {
	Path       string
	Title      string
	Section    string
	Line       int
	Text       string
	OrderIndex int
	Rank       float64 // raw bm25(); lower is better
}

// Stats summarizes the store contents.
type Stats struct {
	Sources       int
	Chunks        int
	LastIndexedTS string // most recent last_indexed_ts, "" when empty
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
