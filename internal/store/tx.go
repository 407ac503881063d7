package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
	"github.com/cmos-dev/cmoskb/internal/segment"
)

// Tx is a write transaction on a scoped connection. It is only valid
// inside the function passed to WithTx.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction on a dedicated connection.
// The transaction commits when fn returns nil and rolls back otherwise.
// The connection is released in every case.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return kberrors.StorageError("failed to acquire connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer func() { logRollback(tx.Rollback()) }()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

// ListSources returns every persisted source ordered by path.
func (t *Tx) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, path, COALESCE(title, ''), COALESCE(fingerprint, ''), COALESCE(last_indexed_ts, '')
		FROM kb_sources ORDER BY path`)
	if err != nil {
		return nil, classify("failed to list sources", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Path, &src.Title, &src.Fingerprint, &src.LastIndexedTS); err != nil {
			return nil, classify("failed to scan source", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to list sources", err)
	}
	return sources, nil
}

// UpsertSource inserts the source or updates title, fingerprint and
// timestamp of the existing row with the same path. It returns the
// source id.
func (t *Tx) UpsertSource(ctx context.Context, path, title, fingerprint, ts string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO kb_sources (path, title, fingerprint, last_indexed_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			fingerprint = excluded.fingerprint,
			last_indexed_ts = excluded.last_indexed_ts
		RETURNING id`, path, title, fingerprint, ts).Scan(&id)
	if err != nil {
		return 0, classify(fmt.Sprintf("failed to upsert source %s", path), err)
	}
	return id, nil
}

// ReplaceChunks drops the source's chunks and full-text entries, then
// inserts one chunk per non-empty paragraph. It returns the number of
// chunks inserted.
func (t *Tx) ReplaceChunks(ctx context.Context, sourceID int64, paragraphs []segment.Paragraph) (int, error) {
	if err := t.removeChunks(ctx, sourceID); err != nil {
		return 0, err
	}

	chunkStmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO kb_chunks (source_id, order_index, section, line, text)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, classify("failed to prepare chunk insert", err)
	}
	defer chunkStmt.Close()

	ftsStmt, err := t.tx.PrepareContext(ctx, `INSERT INTO kb_chunks_fts (rowid, text) VALUES (?, ?)`)
	if err != nil {
		return 0, classify("failed to prepare full-text insert", err)
	}
	defer ftsStmt.Close()

	count := 0
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		res, err := chunkStmt.ExecContext(ctx, sourceID, count, nullable(p.Section), p.Line, text)
		if err != nil {
			return 0, classify("failed to insert chunk", err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return 0, classify("failed to read chunk id", err)
		}
		if _, err := ftsStmt.ExecContext(ctx, chunkID, text); err != nil {
			return 0, classify("failed to insert full-text entry", err)
		}
		count++
	}
	return count, nil
}

// DeleteSource removes the source with its chunks and full-text entries.
func (t *Tx) DeleteSource(ctx context.Context, sourceID int64) error {
	if err := t.removeChunks(ctx, sourceID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM kb_sources WHERE id = ?`, sourceID); err != nil {
		return classify("failed to delete source", err)
	}
	return nil
}

// Chunks returns the source's chunks in order.
func (t *Tx) Chunks(ctx context.Context, sourceID int64) ([]Chunk, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, source_id, order_index, COALESCE(section, ''), COALESCE(line, 0), text
		FROM kb_chunks WHERE source_id = ? ORDER BY order_index`, sourceID)
	if err != nil {
		return nil, classify("failed to list chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.SourceID, &c.OrderIndex, &c.Section, &c.Line, &c.Text); err != nil {
			return nil, classify("failed to scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to list chunks", err)
	}
	return chunks, nil
}

// removeChunks deletes full-text entries first; the external-content
// table needs the original text to drop its postings.
func (t *Tx) removeChunks(ctx context.Context, sourceID int64) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO kb_chunks_fts (kb_chunks_fts, rowid, text)
		SELECT 'delete', id, text FROM kb_chunks WHERE source_id = ?`, sourceID); err != nil {
		return classify("failed to delete full-text entries", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM kb_chunks WHERE source_id = ?`, sourceID); err != nil {
		return classify("failed to delete chunks", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
