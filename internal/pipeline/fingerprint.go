package pipeline

import (
	"fmt"
	"sort"

	"github.com/starford/perth/internal/checksum"
	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
)

// Fingerprint derives a content hash over the corpus metadata and the
// extracted edge set. Two runs over identical input produce identical
// fingerprints regardless of input order; any change to a proposal header,
// a body, or an edge changes the value.
func Fingerprint(proposals []*corpus.Proposal, edges []graph.Edge) string {
	ps := make([]*corpus.Proposal, len(proposals))
	copy(ps, proposals)
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })

	es := make([]graph.Edge, len(edges))
	copy(es, edges)
	sort.Slice(es, func(i, j int) bool {
		if es[i].Source != es[j].Source {
			return es[i].Source < es[j].Source
		}
		if es[i].Target != es[j].Target {
			return es[i].Target < es[j].Target
		}
		return es[i].Kind < es[j].Kind
	})

	b := checksum.NewBuilder()
	for _, p := range ps {
		created := ""
		if p.Created != nil {
			created = p.Created.Format("2006-01-02")
		}
		b.WriteString(fmt.Sprintf("proposal|%d|%s|%s|%s|%v|%v|%s\n",
			p.ID, p.Title, p.Status, created, p.Requires, p.Replaces,
			checksum.Sum([]byte(p.Body))))
	}
	for _, e := range es {
		b.WriteString(fmt.Sprintf("edge|%d|%d|%s|%d\n", e.Source, e.Target, e.Kind, e.Count))
	}
	return b.Sum()
}
