package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/pipeline"
)

const (
	createdLayout = "2006-01-02"
	stampLayout   = time.RFC3339Nano
)

// State returns the persisted pipeline state, or apperr.ErrNotFound before
// the first committed run.
func (db *DB) State() (*pipeline.State, error) {
	var fp, retrieved, checked string
	err := db.conn.QueryRow(`SELECT fingerprint, retrieved_at, checked_at FROM run_state WHERE id = 1`).
		Scan(&fp, &retrieved, &checked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load state: %w", err)
	}
	st := &pipeline.State{Fingerprint: fp}
	if st.RetrievedAt, err = time.Parse(stampLayout, retrieved); err != nil {
		return nil, fmt.Errorf("store: parse retrieved_at: %w", err)
	}
	if st.CheckedAt, err = time.Parse(stampLayout, checked); err != nil {
		return nil, fmt.Errorf("store: parse checked_at: %w", err)
	}
	return st, nil
}

// TouchChecked advances only the checked_at timestamp of the run state.
func (db *DB) TouchChecked(at time.Time) error {
	_, err := db.conn.Exec(`UPDATE run_state SET checked_at = ? WHERE id = 1`, at.UTC().Format(stampLayout))
	if err != nil {
		return fmt.Errorf("store: touch checked: %w", err)
	}
	return nil
}

// CommitRun replaces the previous run wholesale inside one transaction:
// proposals, edges, metrics, search index, and run state all switch over
// together or not at all.
func (db *DB) CommitRun(st pipeline.State, proposals []*corpus.Proposal, g *graph.Graph, snap *metrics.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, stmt := range []string{
		`DELETE FROM proposals`, `DELETE FROM edges`, `DELETE FROM node_metrics`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("store: clear tables: %w", err)
		}
	}
	ftsDeleteAll(tx)

	propStmt, err := tx.Prepare(`
		INSERT INTO proposals (id, title, status, type, created, authors, requires, replaces, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare proposal insert: %w", err)
	}
	defer propStmt.Close()
	for _, p := range proposals {
		var created any
		if p.Created != nil {
			created = p.Created.Format(createdLayout)
		}
		authors, _ := json.Marshal(p.Authors)
		requires, _ := json.Marshal(p.Requires)
		replaces, _ := json.Marshal(p.Replaces)
		if _, err := propStmt.Exec(p.ID, p.Title, p.Status, p.Type, created,
			string(authors), string(requires), string(replaces), p.Body); err != nil {
			return fmt.Errorf("store: insert proposal %d: %w", p.ID, err)
		}
		if err := ftsUpsert(tx, p.ID, p.Title, p.Body); err != nil {
			return err
		}
	}

	edgeStmt, err := tx.Prepare(`
		INSERT INTO edges (source, target, kind, count, dangling) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range g.Edges {
		if _, err := edgeStmt.Exec(e.Source, e.Target, string(e.Kind), e.Count, e.Dangling); err != nil {
			return fmt.Errorf("store: insert edge %d->%d: %w", e.Source, e.Target, err)
		}
	}

	metricStmt, err := tx.Prepare(`
		INSERT INTO node_metrics (id, in_degree, out_degree, degree, importance) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare metric insert: %w", err)
	}
	defer metricStmt.Close()
	for _, m := range snap.Nodes {
		if _, err := metricStmt.Exec(m.ID, m.InDegree, m.OutDegree, m.Degree, m.Importance); err != nil {
			return fmt.Errorf("store: insert metrics %d: %w", m.ID, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO run_state (id, fingerprint, retrieved_at, checked_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint  = excluded.fingerprint,
			retrieved_at = excluded.retrieved_at,
			checked_at   = excluded.checked_at
	`, st.Fingerprint, st.RetrievedAt.UTC().Format(stampLayout), st.CheckedAt.UTC().Format(stampLayout))
	if err != nil {
		return fmt.Errorf("store: upsert run state: %w", err)
	}

	return tx.Commit()
}

// Snapshot loads the committed metrics snapshot.
func (db *DB) Snapshot() (*metrics.Snapshot, error) {
	rows, err := db.conn.Query(`SELECT id, in_degree, out_degree, degree, importance FROM node_metrics`)
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	defer rows.Close()

	snap := &metrics.Snapshot{Nodes: make(map[int]metrics.NodeMetrics)}
	for rows.Next() {
		var m metrics.NodeMetrics
		if err := rows.Scan(&m.ID, &m.InDegree, &m.OutDegree, &m.Degree, &m.Importance); err != nil {
			return nil, err
		}
		snap.Nodes[m.ID] = m
	}
	return snap, rows.Err()
}

// MetricsFor returns the metrics for one proposal.
func (db *DB) MetricsFor(id int) (*metrics.NodeMetrics, error) {
	var m metrics.NodeMetrics
	err := db.conn.QueryRow(`SELECT id, in_degree, out_degree, degree, importance FROM node_metrics WHERE id = ?`, id).
		Scan(&m.ID, &m.InDegree, &m.OutDegree, &m.Degree, &m.Importance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: metrics for %d: %w", id, err)
	}
	return &m, nil
}

// ListProposals returns a page of proposals (without bodies) ordered by ID,
// optionally filtered by status, plus the total matching count.
func (db *DB) ListProposals(limit, offset int, status string) ([]*corpus.Proposal, int, error) {
	if limit <= 0 {
		limit = 100
	}
	where, args := "", []any{}
	if status != "" {
		where = ` WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM proposals`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count proposals: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, status, type, created, authors, requires, replaces
		FROM proposals`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list proposals: %w", err)
	}
	defer rows.Close()

	var out []*corpus.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProposal returns one proposal including its body.
func (db *DB) GetProposal(id int) (*corpus.Proposal, error) {
	row := db.conn.QueryRow(`
		SELECT id, title, status, type, created, authors, requires, replaces, body
		FROM proposals WHERE id = ?`, id)

	var p corpus.Proposal
	var created sql.NullString
	var authors, requires, replaces string
	err := row.Scan(&p.ID, &p.Title, &p.Status, &p.Type, &created, &authors, &requires, &replaces, &p.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get proposal %d: %w", id, err)
	}
	decodeProposalFields(&p, created, authors, requires, replaces)
	return &p, nil
}

// Citers returns the incoming edges of a proposal (who references it).
func (db *DB) Citers(id int) ([]graph.Edge, error) {
	return db.queryEdges(`SELECT source, target, kind, count, dangling FROM edges
		WHERE target = ? ORDER BY source, kind`, id)
}

// Citations returns the outgoing edges of a proposal, dangling included.
func (db *DB) Citations(id int) ([]graph.Edge, error) {
	return db.queryEdges(`SELECT source, target, kind, count, dangling FROM edges
		WHERE source = ? ORDER BY target, kind`, id)
}

// GraphData returns the node and non-dangling edge sets for visualization.
func (db *DB) GraphData() ([]NodeInfo, []graph.Edge, error) {
	rows, err := db.conn.Query(`SELECT id, title, status FROM proposals ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("store: graph nodes: %w", err)
	}
	defer rows.Close()

	var nodes []NodeInfo
	for rows.Next() {
		var n NodeInfo
		if err := rows.Scan(&n.ID, &n.Title, &n.Status); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	edges, err := db.queryEdges(`SELECT source, target, kind, count, dangling FROM edges
		WHERE dangling = 0 ORDER BY source, target, kind`)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

// DanglingEdges returns edges pointing at unknown proposals, for diagnostics.
func (db *DB) DanglingEdges() ([]graph.Edge, error) {
	return db.queryEdges(`SELECT source, target, kind, count, dangling FROM edges
		WHERE dangling = 1 ORDER BY source, target, kind`)
}

func (db *DB) queryEdges(query string, args ...any) ([]graph.Edge, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.Source, &e.Target, &kind, &e.Count, &e.Dangling); err != nil {
			return nil, err
		}
		e.Kind = graph.Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanProposal(rows *sql.Rows) (*corpus.Proposal, error) {
	var p corpus.Proposal
	var created sql.NullString
	var authors, requires, replaces string
	if err := rows.Scan(&p.ID, &p.Title, &p.Status, &p.Type, &created, &authors, &requires, &replaces); err != nil {
		return nil, err
	}
	decodeProposalFields(&p, created, authors, requires, replaces)
	return &p, nil
}

func decodeProposalFields(p *corpus.Proposal, created sql.NullString, authors, requires, replaces string) {
	if created.Valid {
		if t, err := time.Parse(createdLayout, created.String); err == nil {
			p.Created = &t
		}
	}
	_ = json.Unmarshal([]byte(authors), &p.Authors)
	_ = json.Unmarshal([]byte(requires), &p.Requires)
	_ = json.Unmarshal([]byte(replaces), &p.Replaces)
}
