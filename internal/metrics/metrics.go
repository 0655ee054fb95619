// Package metrics computes per-proposal connectivity metrics over the
// citation graph: degree family plus a PageRank importance score.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/graph"
)

// Options control the importance iteration.
type Options struct {
	Damping       float64
	MaxIterations int
	Tolerance     float64 // L1 residual threshold for convergence
}

// DefaultOptions returns the standard parameters.
func DefaultOptions() Options {
	return Options{Damping: 0.85, MaxIterations: 100, Tolerance: 1e-6}
}

// NodeMetrics holds the computed values for one proposal.
//
// Degrees are distinct-neighbour counts over all non-dangling edge kinds:
// in-degree counts distinct citing proposals, out-degree distinct cited
// ones. Occurrence counts stay on the edges as display metadata and are
// never summed into a degree. A self-loop counts toward both directions.
type NodeMetrics struct {
	ID         int     `json:"id"`
	InDegree   int     `json:"in_degree"`
	OutDegree  int     `json:"out_degree"`
	Degree     int     `json:"degree"`
	Importance float64 `json:"importance"`
}

// Snapshot is the full metrics set for one computation. It is regenerated
// wholesale on every recomputation, never patched field-by-field.
type Snapshot struct {
	Nodes map[int]NodeMetrics `json:"nodes"`
}

// Compute derives a Snapshot from the graph. It is a pure function of its
// input: no history, no hidden state. The only failure mode is the
// importance iteration failing to converge within its iteration cap.
func Compute(g *graph.Graph, opts Options) (*Snapshot, error) {
	ids := sortedNodeIDs(g)

	in := make(map[int]map[int]struct{})
	out := make(map[int]map[int]struct{})
	for _, e := range g.Edges {
		if e.Dangling {
			continue
		}
		addNeighbour(out, e.Source, e.Target)
		addNeighbour(in, e.Target, e.Source)
	}

	rank, err := importance(g, ids, opts)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Nodes: make(map[int]NodeMetrics, len(ids))}
	for _, id := range ids {
		inDeg := len(in[id])
		outDeg := len(out[id])
		snap.Nodes[id] = NodeMetrics{
			ID:         id,
			InDegree:   inDeg,
			OutDegree:  outDeg,
			Degree:     inDeg + outDeg,
			Importance: rank[id],
		}
	}
	return snap, nil
}

// importance runs the damped power iteration. Self-loops and dangling edges
// are excluded from the transition so they cannot inflate a node's own
// score; nodes left without successors redistribute their mass uniformly,
// keeping the total at 1.
func importance(g *graph.Graph, ids []int, opts Options) (map[int]float64, error) {
	n := len(ids)
	if n == 0 {
		return map[int]float64{}, nil
	}

	succ := make(map[int]map[int]struct{})
	for _, e := range g.Edges {
		if e.Dangling || e.Source == e.Target {
			continue
		}
		addNeighbour(succ, e.Source, e.Target)
	}
	pred := make(map[int][]int)
	outCount := make(map[int]int)
	for source, targets := range succ {
		outCount[source] = len(targets)
		for target := range targets {
			pred[target] = append(pred[target], source)
		}
	}
	// Deterministic contribution order.
	for _, sources := range pred {
		sort.Ints(sources)
	}

	d := opts.Damping
	nf := float64(n)
	rank := make(map[int]float64, n)
	for _, id := range ids {
		rank[id] = 1 / nf
	}

	next := make(map[int]float64, n)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		var sinkMass float64
		for _, id := range ids {
			if outCount[id] == 0 {
				sinkMass += rank[id]
			}
		}
		base := (1-d)/nf + d*sinkMass/nf

		var residual float64
		for _, id := range ids {
			r := base
			for _, source := range pred[id] {
				r += d * rank[source] / float64(outCount[source])
			}
			next[id] = r
			residual += math.Abs(r - rank[id])
		}
		rank, next = next, rank

		if residual < opts.Tolerance {
			return rank, nil
		}
	}
	return nil, fmt.Errorf("metrics: after %d iterations: %w", opts.MaxIterations, apperr.ErrNoConvergence)
}

func sortedNodeIDs(g *graph.Graph) []int {
	ids := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func addNeighbour(m map[int]map[int]struct{}, key, neighbour int) {
	set, ok := m[key]
	if !ok {
		set = make(map[int]struct{})
		m[key] = set
	}
	set[neighbour] = struct{}{}
}
