//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS proposals_fts USING fts5(
			id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id int, title, body string) error {
	_, _ = tx.Exec(`DELETE FROM proposals_fts WHERE id = ?`, id)
	if _, err := tx.Exec(`INSERT INTO proposals_fts (id, title, body) VALUES (?, ?, ?)`, id, title, body); err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteAll(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM proposals_fts`)
}

// Search performs an FTS5 full-text search over titles and bodies.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       title,
		       snippet(proposals_fts, 2, '<b>', '</b>', '...', 64)
		FROM proposals_fts
		WHERE proposals_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
