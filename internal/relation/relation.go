// Package relation turns declared Requires/Replaces metadata into typed
// relation edges.
package relation

import "github.com/starford/perth/internal/graph"

// Resolve produces one relation edge per declared ID, directed from the
// declaring proposal. Absent or empty sets produce no edges. IDs pointing
// at unknown proposals are resolved like any other; the graph builder tags
// them dangling.
func Resolve(sourceID int, requires, replaces []int) []graph.Edge {
	out := make([]graph.Edge, 0, len(requires)+len(replaces))
	for _, id := range requires {
		out = append(out, graph.Edge{Source: sourceID, Target: id, Count: 1, Kind: graph.KindRequires})
	}
	for _, id := range replaces {
		out = append(out, graph.Edge{Source: sourceID, Target: id, Count: 1, Kind: graph.KindReplaces})
	}
	return out
}
