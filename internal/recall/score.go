package recall

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and returns its maximal letter/digit runs
// that are longer than one rune, in order, with repeats.
func Tokenize(text string) []string {
	var tokens []string
	var word []rune
	emit := func() {
		if len(word) > 1 {
			tokens = append(tokens, string(word))
		}
		word = word[:0]
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			word = append(word, r)
			continue
		}
		emit()
	}
	emit()
	return tokens
}

// scorer holds the per-query state shared across snippets.
type scorer struct {
	weights Weights
	tokens  []string // distinct, first-seen order
	query   string   // lower-cased normalized query
}

func newScorer(query string, tokens []string, w Weights) *scorer {
	seen := make(map[string]bool, len(tokens))
	distinct := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}
	return &scorer{weights: w, tokens: distinct, query: strings.ToLower(query)}
}

// score returns 0 for snippets that should be excluded.
func (s *scorer) score(textLower string) float64 {
	direct := 0
	present := 0
	for _, t := range s.tokens {
		n := strings.Count(textLower, t)
		direct += n
		if n > 0 {
			present++
		}
	}
	substring := strings.Contains(textLower, s.query)

	if direct == 0 && !substring {
		ratio := QuickRatio(s.query, textLower)
		if ratio > s.weights.FuzzyThreshold {
			return ratio
		}
		return 0
	}

	score := float64(direct)
	if substring {
		score += s.weights.SubstringBonus
	}
	return score + s.weights.TokenBonus*float64(present)
}

// QuickRatio is an upper bound on sequence similarity: twice the size
// of the rune multiset intersection over the total rune count. Two
// empty strings have ratio 1.
func QuickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}
