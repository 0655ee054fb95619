// Package graph builds the directed citation multigraph from extracted
// citations and declared relations.
package graph

import (
	"sort"

	"github.com/starford/perth/internal/corpus"
)

// Kind distinguishes how an edge was discovered. Kind is part of edge
// identity: a textual citation and a declared relation between the same
// pair are kept as separate edges.
type Kind string

const (
	KindTextual  Kind = "textual"
	KindRequires Kind = "requires"
	KindReplaces Kind = "replaces"
)

// Edge is a directed reference from one proposal to another.
type Edge struct {
	Source int  `json:"source"`
	Target int  `json:"target"`
	Count  int  `json:"count"`
	Kind   Kind `json:"kind"`
	// Dangling marks edges whose target is not a known proposal. They are
	// kept for diagnostics but excluded from node membership and metrics.
	Dangling bool `json:"dangling,omitempty"`
}

// Graph is the citation graph over one corpus pull. Nodes contains known
// proposals only; Edges is sorted by (source, target, kind) so builds are
// reproducible regardless of input order.
type Graph struct {
	Nodes map[int]*corpus.Proposal
	Edges []Edge
}

type edgeKey struct {
	source, target int
	kind           Kind
}

// Build aggregates textual citation edges and relation edges for the full
// proposal set. Accumulation is keyed by (source, target, kind) with summed
// occurrence counts, which makes the merge commutative and associative:
// any permutation of the inputs yields an identical graph. Self-loops and
// cycles are retained.
func Build(proposals []*corpus.Proposal, textual, relations []Edge) *Graph {
	nodes := make(map[int]*corpus.Proposal, len(proposals))
	for _, p := range proposals {
		nodes[p.ID] = p
	}

	acc := make(map[edgeKey]int)
	for _, e := range textual {
		acc[edgeKey{e.Source, e.Target, e.Kind}] += e.Count
	}
	for _, e := range relations {
		acc[edgeKey{e.Source, e.Target, e.Kind}] += e.Count
	}

	edges := make([]Edge, 0, len(acc))
	for k, count := range acc {
		_, known := nodes[k.target]
		edges = append(edges, Edge{
			Source:   k.source,
			Target:   k.target,
			Count:    count,
			Kind:     k.kind,
			Dangling: !known,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Kind < edges[j].Kind
	})

	return &Graph{Nodes: nodes, Edges: edges}
}

// Dangling returns the edges pointing at unknown proposals.
func (g *Graph) Dangling() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Dangling {
			out = append(out, e)
		}
	}
	return out
}

// TextualEdges returns a copy of the textual-kind edges only, for consumers
// that explicitly request textual-only views.
func (g *Graph) TextualEdges() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Kind == KindTextual {
			out = append(out, e)
		}
	}
	return out
}
