package store

import (
	"context"
	"database/sql"
	"strings"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
)

const matchQuery = `
	SELECT s.path, COALESCE(s.title, ''), COALESCE(c.section, ''), COALESCE(c.line, 0),
		c.text, c.order_index, bm25(kb_chunks_fts) AS score
	FROM kb_chunks_fts
	JOIN kb_chunks c ON c.id = kb_chunks_fts.rowid
	JOIN kb_sources s ON s.id = c.source_id
	WHERE kb_chunks_fts MATCH ?
	ORDER BY score ASC, s.path ASC, c.order_index ASC`

// Match runs an FTS5 query and returns rows best first. Ties on rank
// are ordered by source path, then chunk order. A limit of zero or less
// returns every match.
func (s *Store) Match(ctx context.Context, query string, limit int) ([]Match, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, kberrors.StorageError("failed to acquire connection", err)
	}
	defer conn.Close()

	q, args := matchQuery, []any{query}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classifyMatch(query, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var rank sql.NullFloat64
		if err := rows.Scan(&m.Path, &m.Title, &m.Section, &m.Line, &m.Text, &m.OrderIndex, &rank); err != nil {
			return nil, classify("failed to scan match", err)
		}
		m.Rank = rank.Float64
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyMatch(query, err)
	}
	return matches, nil
}

// classifyMatch separates malformed FTS5 expressions from storage failures.
func classifyMatch(query string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "fts5:") || strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "no such column") || strings.Contains(msg, "unterminated string") {
		return kberrors.New(kberrors.ErrCodeInvalidQuery, "invalid full-text query", err).
			WithDetail("query", query).
			WithSuggestion("quote terms containing punctuation, e.g. \"foo-bar\"")
	}
	return classify("full-text query failed", err)
}
