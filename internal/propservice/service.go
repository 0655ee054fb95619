// Package propservice coordinates the store and the recompute pipeline for
// the serving layer (REST and MCP).
package propservice

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/pipeline"
	"github.com/starford/perth/internal/storage"
	"github.com/starford/perth/internal/store"
)

// ProposalDetail is the full representation of one proposal: metadata,
// body, computed metrics, and both edge directions.
type ProposalDetail struct {
	ID        int                  `json:"id"`
	Title     string               `json:"title"`
	Status    string               `json:"status"`
	Type      string               `json:"type"`
	Created   *time.Time           `json:"created,omitempty"`
	Authors   []string             `json:"authors"`
	Requires  []int                `json:"requires"`
	Replaces  []int                `json:"replaces"`
	Body      string               `json:"body"`
	Metrics   *metrics.NodeMetrics `json:"metrics,omitempty"`
	Citers    []graph.Edge         `json:"citers"`
	Citations []graph.Edge         `json:"citations"`
}

// Status reports the pipeline state to the consuming layer.
type Status struct {
	Fingerprint string    `json:"fingerprint"`
	RetrievedAt time.Time `json:"retrieved_at"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Service coordinates corpus loading, the pipeline, and the store.
type Service struct {
	db     store.ProposalStore
	pipe   *pipeline.Pipeline
	source storage.Provider
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(db store.ProposalStore, pipe *pipeline.Pipeline, source storage.Provider, logger *slog.Logger) *Service {
	return &Service{db: db, pipe: pipe, source: source, logger: logger}
}

// Recompute loads the corpus and runs the change-detection gate. When the
// corpus is unchanged this is cheap: extraction plus a fingerprint compare.
func (s *Service) Recompute(ctx context.Context) (*pipeline.Result, error) {
	proposals, err := corpus.Load(s.source, s.logger)
	if err != nil {
		return nil, err
	}
	return s.pipe.MaybeRecompute(ctx, proposals)
}

// Status returns the committed pipeline state.
func (s *Service) Status(_ context.Context) (*Status, error) {
	st, err := s.db.State()
	if err != nil {
		return nil, err
	}
	return &Status{Fingerprint: st.Fingerprint, RetrievedAt: st.RetrievedAt, CheckedAt: st.CheckedAt}, nil
}

// ListProposals returns a page of proposals plus the total count.
func (s *Service) ListProposals(_ context.Context, limit, offset int, status string) ([]*corpus.Proposal, int, error) {
	return s.db.ListProposals(limit, offset, status)
}

// GetProposal returns one proposal enriched with metrics and edges.
func (s *Service) GetProposal(_ context.Context, id int) (*ProposalDetail, error) {
	p, err := s.db.GetProposal(id)
	if err != nil {
		return nil, err
	}
	citers, err := s.db.Citers(id)
	if err != nil {
		return nil, err
	}
	citations, err := s.db.Citations(id)
	if err != nil {
		return nil, err
	}
	m, err := s.db.MetricsFor(id)
	if err != nil {
		// A proposal committed without metrics cannot happen in a normal
		// run; treat it as absent rather than failing the lookup.
		m = nil
	}
	if citers == nil {
		citers = []graph.Edge{}
	}
	if citations == nil {
		citations = []graph.Edge{}
	}
	return &ProposalDetail{
		ID:        p.ID,
		Title:     p.Title,
		Status:    p.Status,
		Type:      p.Type,
		Created:   p.Created,
		Authors:   p.Authors,
		Requires:  p.Requires,
		Replaces:  p.Replaces,
		Body:      p.Body,
		Metrics:   m,
		Citers:    citers,
		Citations: citations,
	}, nil
}

// Graph returns the node and edge sets for the visualization layer.
func (s *Service) Graph(_ context.Context) ([]store.NodeInfo, []graph.Edge, error) {
	return s.db.GraphData()
}

// Metrics returns the full committed snapshot.
func (s *Service) Metrics(_ context.Context) (*metrics.Snapshot, error) {
	return s.db.Snapshot()
}

// MetricsFor returns the metrics of one proposal.
func (s *Service) MetricsFor(_ context.Context, id int) (*metrics.NodeMetrics, error) {
	return s.db.MetricsFor(id)
}

// Dangling returns the diagnostic edges pointing at unknown proposals.
func (s *Service) Dangling(_ context.Context) ([]graph.Edge, error) {
	return s.db.DanglingEdges()
}

// Search performs full-text search over proposal titles and bodies.
func (s *Service) Search(_ context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.db.Search(query, limit)
}

// TopByImportance returns the n highest-ranked proposals.
func (s *Service) TopByImportance(_ context.Context, n int) ([]metrics.NodeMetrics, error) {
	snap, err := s.db.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]metrics.NodeMetrics, 0, len(snap.Nodes))
	for _, m := range snap.Nodes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}
