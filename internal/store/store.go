package store

import (
	"time"

	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/pipeline"
)

// NodeInfo is the lightweight node view used by graph and list responses.
type NodeInfo struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ProposalStore defines the persistence operations the service layer
// depends on. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with fakes.
type ProposalStore interface {
	// Pipeline gate persistence.
	State() (*pipeline.State, error)
	Snapshot() (*metrics.Snapshot, error)
	CommitRun(st pipeline.State, proposals []*corpus.Proposal, g *graph.Graph, snap *metrics.Snapshot) error
	TouchChecked(at time.Time) error

	// Read side for the serving layer.
	ListProposals(limit, offset int, status string) ([]*corpus.Proposal, int, error)
	GetProposal(id int) (*corpus.Proposal, error)
	Citers(id int) ([]graph.Edge, error)
	Citations(id int) ([]graph.Edge, error)
	GraphData() ([]NodeInfo, []graph.Edge, error)
	DanglingEdges() ([]graph.Edge, error)
	MetricsFor(id int) (*metrics.NodeMetrics, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ProposalStore at compile time.
var _ ProposalStore = (*DB)(nil)

// Verify *DB satisfies the pipeline's store contract at compile time.
var _ pipeline.Store = (*DB)(nil)
