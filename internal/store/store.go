// Package store persists documents, their analysed structure, knowledge
// graphs and learning activity in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed repository. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// Pragmas go in the DSN so every pooled connection gets them.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			file_type TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			page_count INTEGER NOT NULL DEFAULT 0,
			uploaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash)`,
		`CREATE TABLE IF NOT EXISTS structures (
			document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
			result TEXT NOT NULL,
			fallback_used INTEGER NOT NULL DEFAULT 0,
			analyzed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS knowledge_nodes (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			node_id TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			node_type TEXT NOT NULL,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			importance TEXT NOT NULL,
			description TEXT NOT NULL,
			time_spent INTEGER NOT NULL,
			last_reviewed_at TEXT,
			source_element_id TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL,
			PRIMARY KEY (document_id, node_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_position ON knowledge_nodes(document_id, position)`,
		`CREATE TABLE IF NOT EXISTS learning_sessions (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			session_type TEXT NOT NULL,
			duration INTEGER NOT NULL,
			score REAL,
			completed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			FOREIGN KEY (document_id, node_id) REFERENCES knowledge_nodes(document_id, node_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_node ON learning_sessions(document_id, node_id)`,
		`CREATE TABLE IF NOT EXISTS learning_progress (
			user_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			time_spent INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			confidence REAL NOT NULL,
			last_practice_at TEXT NOT NULL,
			PRIMARY KEY (user_id, document_id, node_id),
			FOREIGN KEY (document_id, node_id) REFERENCES knowledge_nodes(document_id, node_id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Tx is a store transaction handed to read-modify-write callbacks.
type Tx struct {
	tx *sql.Tx
}

// RunTx runs fn in a transaction, retrying when SQLite reports busy.
func (s *Store) RunTx(ctx context.Context, fn func(*Tx) error) error {
	return runTx(ctx, s.db, func(tx *sql.Tx) error { return fn(&Tx{tx: tx}) })
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
