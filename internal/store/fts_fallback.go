//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the proposals table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ int, _, _ string) error {
	// Titles and bodies already live in the proposals table.
	return nil
}

func ftsDeleteAll(_ *sql.Tx) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, title, substr(body, 1, 200)
		FROM proposals
		WHERE title LIKE ? OR body LIKE ?
		ORDER BY id
		LIMIT ?
	`, like, like, limit)
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
