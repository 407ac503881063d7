// Package recall provides a persistence-free lookup over the knowledge
// base. Snippets are segmented straight from disk, cached per root and
// rebuilt whenever a file's modification time changes.
package recall

import (
	"encoding/json"
	"math"
	"time"
)

// DefaultLimit is the result count used when callers do not pick one.
const DefaultLimit = 5

// DefaultCacheRoots bounds how many roots a Cache keeps snippets for.
const DefaultCacheRoots = 64

// Weights tunes snippet scoring.
type Weights struct {
	// FuzzyThreshold is the similarity a snippet without token hits must
	// strictly exceed to be returned.
	FuzzyThreshold float64
	// SubstringBonus is added when the whole query occurs in the snippet.
	SubstringBonus float64
	// TokenBonus is added per distinct query token found in the snippet.
	TokenBonus float64
}

// DefaultWeights returns the stock scoring constants.
func DefaultWeights() Weights {
	return Weights{
		FuzzyThreshold: 0.6,
		SubstringBonus: 1.0,
		TokenBonus:     0.25,
	}
}

// Result is one recalled snippet.
type Result struct {
	Path    string  // relative to the root's parent
	Title   string
	Excerpt string  // shortened text, prefixed with its section when useful
	Score   float64 // higher is better
	Line    int
}

// MarshalJSON rounds the score to four decimals.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path    string  `json:"path"`
		Title   string  `json:"title"`
		Excerpt string  `json:"excerpt"`
		Score   float64 `json:"score"`
		Line    int     `json:"line,omitempty"`
	}{r.Path, r.Title, r.Excerpt, math.Round(r.Score*1e4) / 1e4, r.Line})
}

// snippet is one cached paragraph.
type snippet struct {
	relPath string
	title   string
	section string
	line    int
	text    string
	lower   string
}

// signature maps absolute path to modification time.
type signature map[string]time.Time

func (s signature) equal(other signature) bool {
	if len(s) != len(other) {
		return false
	}
	for path, mt := range s {
		omt, ok := other[path]
		if !ok || !mt.Equal(omt) {
			return false
		}
	}
	return true
}

type entry struct {
	snippets []snippet
	sig      signature
}
