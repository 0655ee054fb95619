// Package pipeline runs the extraction-to-metrics batch and gates
// recomputation on a corpus fingerprint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/cite"
	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/relation"
)

// State is the persisted gate record: the fingerprint of the last committed
// run plus the two timestamps the consuming layer needs. RetrievedAt is
// when the corpus behind the current snapshot was pulled; CheckedAt is when
// a fingerprint comparison last ran, whether or not anything changed.
type State struct {
	Fingerprint string
	RetrievedAt time.Time
	CheckedAt   time.Time
}

// Store is the persistence the gate needs. State returns
// apperr.ErrNotFound before the first committed run. CommitRun must replace
// the previous run atomically; a failed run must leave it untouched.
type Store interface {
	State() (*State, error)
	Snapshot() (*metrics.Snapshot, error)
	CommitRun(st State, proposals []*corpus.Proposal, g *graph.Graph, snap *metrics.Snapshot) error
	TouchChecked(at time.Time) error
}

// Result is the outcome of one MaybeRecompute call.
type Result struct {
	Snapshot     *metrics.Snapshot
	Fingerprint  string
	DidRecompute bool
	RetrievedAt  time.Time
	CheckedAt    time.Time
}

// Pipeline coordinates extraction, graph building, change detection, and
// metrics computation over one store.
type Pipeline struct {
	store  Store
	opts   metrics.Options
	logger *slog.Logger
	now    func() time.Time

	// mu serialises the read-compare-write of the gate so concurrent runs
	// cannot both commit divergent snapshots.
	mu sync.Mutex
}

// New creates a Pipeline.
func New(store Store, opts metrics.Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, opts: opts, logger: logger, now: time.Now}
}

// MaybeRecompute extracts edges from the given corpus, compares the
// resulting fingerprint with the stored one, and either reports the prior
// snapshot unchanged (advancing only CheckedAt) or runs the full metrics
// computation and commits the new run at the end. It is idempotent under
// retry and safe to call concurrently.
func (p *Pipeline) MaybeRecompute(ctx context.Context, proposals []*corpus.Proposal) (*Result, error) {
	if len(proposals) == 0 {
		return nil, fmt.Errorf("pipeline: %w", apperr.ErrCorpusEmpty)
	}

	g, err := p.buildGraph(ctx, proposals)
	if err != nil {
		return nil, err
	}
	fp := Fingerprint(proposals, g.Edges)

	p.mu.Lock()
	defer p.mu.Unlock()

	prior, err := p.store.State()
	switch {
	case err == nil && prior.Fingerprint == fp:
		now := p.now()
		if err := p.store.TouchChecked(now); err != nil {
			return nil, fmt.Errorf("pipeline: touch checked: %w", err)
		}
		snap, err := p.store.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("pipeline: load prior snapshot: %w", err)
		}
		p.logger.Info("pipeline: corpus unchanged, skipping recompute",
			slog.String("fingerprint", fp[:12]))
		return &Result{
			Snapshot:     snap,
			Fingerprint:  fp,
			DidRecompute: false,
			RetrievedAt:  prior.RetrievedAt,
			CheckedAt:    now,
		}, nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("pipeline: load state: %w", err)
	}

	snap, err := metrics.Compute(g, p.opts)
	if err != nil {
		// Prior snapshot and fingerprint stay committed as-is.
		return nil, err
	}

	now := p.now()
	st := State{Fingerprint: fp, RetrievedAt: now, CheckedAt: now}
	if err := p.store.CommitRun(st, proposals, g, snap); err != nil {
		return nil, fmt.Errorf("pipeline: commit run: %w", err)
	}
	p.logger.Info("pipeline: recomputed metrics",
		slog.Int("proposals", len(proposals)),
		slog.Int("edges", len(g.Edges)),
		slog.String("fingerprint", fp[:12]))
	return &Result{
		Snapshot:     snap,
		Fingerprint:  fp,
		DidRecompute: true,
		RetrievedAt:  now,
		CheckedAt:    now,
	}, nil
}

// buildGraph fans per-proposal extraction out over a worker pool. The
// builder's accumulation is order-insensitive, so the concurrent merge is
// identical to a sequential one.
func (p *Pipeline) buildGraph(ctx context.Context, proposals []*corpus.Proposal) (*graph.Graph, error) {
	textual := make([][]graph.Edge, len(proposals))
	relations := make([][]graph.Edge, len(proposals))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, prop := range proposals {
		eg.Go(func() error {
			for target, count := range cite.Extract(prop.Body) {
				textual[i] = append(textual[i], graph.Edge{
					Source: prop.ID,
					Target: target,
					Count:  count,
					Kind:   graph.KindTextual,
				})
			}
			relations[i] = relation.Resolve(prop.ID, prop.Requires, prop.Replaces)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var allTextual, allRelations []graph.Edge
	for i := range proposals {
		allTextual = append(allTextual, textual[i]...)
		allRelations = append(allRelations, relations[i]...)
	}
	return graph.Build(proposals, allTextual, allRelations), nil
}
