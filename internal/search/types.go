// Package search answers ranked full-text queries against the indexed
// knowledge base.
package search

import (
	"encoding/json"
	"math"
)

// DefaultLimit is the result count used when callers do not pick one.
const DefaultLimit = 5

// DefaultValidationLimit is the per-query result count for Validate.
const DefaultValidationLimit = 3

// DefaultValidationQueries exercise the corpus areas every knowledge
// base is expected to cover.
var DefaultValidationQueries = []string{
	"FTS5 search",
	"trigger registry",
	"Sprint transition",
}

// Hit is one ranked chunk.
type Hit struct {
	Path    string
	Title   string // falls back to Path when the source has no title
	Section string
	Line    int
	Snippet string
	Score   float64 // in (0, 1]; higher is better
}

type hitJSON struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Section string  `json:"section,omitempty"`
	Line    int     `json:"line,omitempty"`
}

// MarshalJSON renders the score rounded to four decimals and omits an
// empty section.
func (h Hit) MarshalJSON() ([]byte, error) {
	return json.Marshal(hitJSON{
		Path:    h.Path,
		Title:   h.Title,
		Snippet: h.Snippet,
		Score:   Round4(h.Score),
		Section: h.Section,
		Line:    h.Line,
	})
}

// ValidationReport is the outcome of one validation query.
type ValidationReport struct {
	Query    string `json:"query"`
	HitCount int    `json:"hit_count"`
	Hits     []Hit  `json:"hits"`
}

// Round4 rounds x to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
