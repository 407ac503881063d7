package store

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS kb_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		title TEXT,
		fingerprint TEXT,
		last_indexed_ts TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS kb_chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL REFERENCES kb_sources(id) ON DELETE CASCADE,
		order_index INTEGER NOT NULL,
		section TEXT,
		line INTEGER,
		text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kb_chunks_source ON kb_chunks(source_id, order_index)`,
	// External-content table: rows are maintained explicitly next to kb_chunks.
	`CREATE VIRTUAL TABLE IF NOT EXISTS kb_chunks_fts
		USING fts5(text, content='kb_chunks', content_rowid='id')`,
}

var requiredTables = []string{"kb_sources", "kb_chunks", "kb_chunks_fts"}

// EnsureSchema creates the knowledge base tables when absent. It is
// idempotent and must run before the first index call.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.tx.ExecContext(ctx, stmt); err != nil {
				return classify("failed to initialize schema", err)
			}
		}
		return nil
	})
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func missingTables(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, t := range requiredTables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
