// Package store provides SQLite-backed persistence for proposals, citation
// edges, the metrics snapshot, and the pipeline run state, with optional
// FTS5 full-text search over proposal bodies.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS proposals (
	id       INTEGER PRIMARY KEY,
	title    TEXT NOT NULL DEFAULT '',
	status   TEXT NOT NULL DEFAULT '',
	type     TEXT NOT NULL DEFAULT '',
	created  TEXT,
	authors  TEXT NOT NULL DEFAULT '[]',
	requires TEXT NOT NULL DEFAULT '[]',
	replaces TEXT NOT NULL DEFAULT '[]',
	body     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS edges (
	source   INTEGER NOT NULL,
	target   INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	count    INTEGER NOT NULL DEFAULT 1,
	dangling INTEGER NOT NULL DEFAULT 0,
	UNIQUE(source, target, kind)
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);

CREATE TABLE IF NOT EXISTS node_metrics (
	id         INTEGER PRIMARY KEY,
	in_degree  INTEGER NOT NULL DEFAULT 0,
	out_degree INTEGER NOT NULL DEFAULT 0,
	degree     INTEGER NOT NULL DEFAULT 0,
	importance REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_state (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	fingerprint  TEXT NOT NULL,
	retrieved_at DATETIME NOT NULL,
	checked_at   DATETIME NOT NULL
);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
