package corpus

import (
	"log/slog"
	"sort"

	"github.com/starford/perth/internal/storage"
)

// Load reads and parses every document in the corpus directory. Documents
// that fail to parse are skipped with a warning; a later duplicate of an ID
// is ignored in favour of the first occurrence. The result is sorted by ID.
func Load(store storage.Provider, logger *slog.Logger) ([]*Proposal, error) {
	metas, err := store.List()
	if err != nil {
		return nil, err
	}

	byID := make(map[int]*Proposal, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("corpus: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		p, err := ParseDocument(data)
		if err != nil {
			logger.Warn("corpus: parse failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, dup := byID[p.ID]; dup {
			logger.Warn("corpus: duplicate proposal id", slog.Int("id", p.ID), slog.String("path", m.Path))
			continue
		}
		byID[p.ID] = p
	}

	out := make([]*Proposal, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
