package api

import (
	"time"

	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/propservice"
	"github.com/starford/perth/internal/store"
)

// ProposalDetail is the full proposal response (aliased from the domain layer).
type ProposalDetail = propservice.ProposalDetail

// ProposalListItem is a lightweight item in a list response.
type ProposalListItem struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Status  string     `json:"status"`
	Type    string     `json:"type"`
	Created *time.Time `json:"created,omitempty"`
	Authors []string   `json:"authors,omitempty"`
}

// ProposalListResponse wraps paginated proposal listings.
type ProposalListResponse struct {
	Proposals []ProposalListItem `json:"proposals"`
	Total     int                `json:"total"`
}

// GraphResponse wraps the citation graph.
type GraphResponse struct {
	Nodes []store.NodeInfo `json:"nodes"`
	Edges []graph.Edge     `json:"edges"`
}

// MetricsResponse wraps the full metrics snapshot.
type MetricsResponse struct {
	Nodes map[int]metrics.NodeMetrics `json:"nodes"`
}

// DanglingResponse wraps the diagnostic dangling edges.
type DanglingResponse struct {
	Edges []graph.Edge `json:"edges"`
}

// StatusResponse reports the pipeline state.
type StatusResponse = propservice.Status

// RecomputeResponse reports the outcome of a recompute request.
type RecomputeResponse struct {
	DidRecompute bool      `json:"did_recompute"`
	Fingerprint  string    `json:"fingerprint"`
	RetrievedAt  time.Time `json:"retrieved_at"`
	CheckedAt    time.Time `json:"checked_at"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

func listItem(p *corpus.Proposal) ProposalListItem {
	return ProposalListItem{
		ID:      p.ID,
		Title:   p.Title,
		Status:  p.Status,
		Type:    p.Type,
		Created: p.Created,
		Authors: p.Authors,
	}
}
