package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver with FTS5

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
)

// Store owns the SQLite handle. Every operation checks out its own
// connection from the pool and returns it before completing.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. An empty path
// opens a private in-memory database, used by tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, kberrors.StorageError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, kberrors.StorageError("failed to open database", err)
	}

	// A single connection keeps in-memory databases alive between calls
	// and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, kberrors.StorageError("failed to set pragma", err).WithDetail("pragma", pragma)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path, "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckIntegrity runs PRAGMA integrity_check and verifies the schema
// is present.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return kberrors.StorageError("failed to acquire connection", err)
	}
	defer conn.Close()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return kberrors.New(kberrors.ErrCodeCorruptIndex, "integrity check failed", err)
	}
	if result != "ok" {
		return kberrors.New(kberrors.ErrCodeCorruptIndex, "database corrupted: "+result, nil).
			WithSuggestion("delete the database file and run `cmoskb index --force`")
	}

	missing, err := missingTables(ctx, conn)
	if err != nil {
		return kberrors.StorageError("cannot query schema", err)
	}
	if len(missing) > 0 {
		return schemaMissing(strings.Join(missing, ", "))
	}
	return nil
}

// Stats returns source and chunk counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return Stats{}, kberrors.StorageError("failed to acquire connection", err)
	}
	defer conn.Close()

	var st Stats
	var last sql.NullString
	err = conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM kb_sources),
			(SELECT COUNT(*) FROM kb_chunks),
			(SELECT MAX(last_indexed_ts) FROM kb_sources)`).Scan(&st.Sources, &st.Chunks, &last)
	if err != nil {
		return Stats{}, classify("failed to read stats", err)
	}
	st.LastIndexedTS = last.String
	return st, nil
}

// classify maps a driver error onto a coded error.
func classify(message string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return schemaMissing(msg)
	case strings.Contains(msg, "malformed"), strings.Contains(msg, "not a database"):
		return kberrors.New(kberrors.ErrCodeCorruptIndex, message, err)
	default:
		return kberrors.StorageError(message, err)
	}
}

func schemaMissing(what string) error {
	return kberrors.New(kberrors.ErrCodeSchemaMissing, "knowledge base schema missing: "+what, nil).
		WithSuggestion("run `cmoskb init` or `cmoskb index` to create it")
}

func logRollback(err error) {
	if err != nil && err != sql.ErrTxDone {
		slog.Warn("store_rollback_failed", slog.String("error", err.Error()))
	}
}
