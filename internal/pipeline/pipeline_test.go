package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/corpus"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/metrics"
)

// memStore is an in-memory Store for exercising the gate without SQLite.
type memStore struct {
	st      *State
	snap    *metrics.Snapshot
	commits int
}

func (m *memStore) State() (*State, error) {
	if m.st == nil {
		return nil, apperr.ErrNotFound
	}
	cp := *m.st
	return &cp, nil
}

func (m *memStore) Snapshot() (*metrics.Snapshot, error) {
	return m.snap, nil
}

func (m *memStore) CommitRun(st State, _ []*corpus.Proposal, _ *graph.Graph, snap *metrics.Snapshot) error {
	m.st = &st
	m.snap = snap
	m.commits++
	return nil
}

func (m *memStore) TouchChecked(at time.Time) error {
	m.st.CheckedAt = at
	return nil
}

func testPipeline(store Store, opts metrics.Options) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, opts, logger)
}

func testCorpus() []*corpus.Proposal {
	return []*corpus.Proposal{
		{ID: 1, Title: "One", Body: "PEP: 1\n\nSee :pep:`2` twice: :pep:`2`.\n"},
		{ID: 2, Title: "Two", Body: "PEP: 2\n\nNo citations here.\n", Requires: []int{1}},
	}
}

func TestMaybeRecomputeFirstRun(t *testing.T) {
	store := &memStore{}
	p := testPipeline(store, metrics.DefaultOptions())

	res, err := p.MaybeRecompute(context.Background(), testCorpus())
	if err != nil {
		t.Fatalf("MaybeRecompute() error: %v", err)
	}
	if !res.DidRecompute {
		t.Error("first run must recompute")
	}
	if res.Fingerprint == "" {
		t.Error("fingerprint must be set")
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
	if len(res.Snapshot.Nodes) != 2 {
		t.Errorf("snapshot has %d nodes, want 2", len(res.Snapshot.Nodes))
	}
	if m := res.Snapshot.Nodes[2]; m.InDegree != 1 {
		t.Errorf("node 2 in-degree = %d, want 1", m.InDegree)
	}
}

func TestMaybeRecomputeUnchangedSkips(t *testing.T) {
	store := &memStore{}
	p := testPipeline(store, metrics.DefaultOptions())

	first, err := p.MaybeRecompute(context.Background(), testCorpus())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.MaybeRecompute(context.Background(), testCorpus())
	if err != nil {
		t.Fatal(err)
	}

	if second.DidRecompute {
		t.Error("unchanged corpus must not recompute")
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed: %s vs %s", second.Fingerprint, first.Fingerprint)
	}
	if !second.RetrievedAt.Equal(first.RetrievedAt) {
		t.Errorf("RetrievedAt advanced on skipped run: %v vs %v", second.RetrievedAt, first.RetrievedAt)
	}
	if second.CheckedAt.Before(first.CheckedAt) {
		t.Errorf("CheckedAt went backwards: %v < %v", second.CheckedAt, first.CheckedAt)
	}
}

func TestMaybeRecomputeOnChange(t *testing.T) {
	store := &memStore{}
	p := testPipeline(store, metrics.DefaultOptions())

	first, err := p.MaybeRecompute(context.Background(), testCorpus())
	if err != nil {
		t.Fatal(err)
	}

	changed := testCorpus()
	changed[0].Body += "Now also PEP 2 in prose.\n"
	second, err := p.MaybeRecompute(context.Background(), changed)
	if err != nil {
		t.Fatal(err)
	}
	if !second.DidRecompute {
		t.Error("changed corpus must recompute")
	}
	if second.Fingerprint == first.Fingerprint {
		t.Error("fingerprint must change with the corpus")
	}
	if store.commits != 2 {
		t.Errorf("commits = %d, want 2", store.commits)
	}
}

func TestMaybeRecomputeEmptyCorpus(t *testing.T) {
	p := testPipeline(&memStore{}, metrics.DefaultOptions())
	_, err := p.MaybeRecompute(context.Background(), nil)
	if !errors.Is(err, apperr.ErrCorpusEmpty) {
		t.Fatalf("err = %v, want ErrCorpusEmpty", err)
	}
}

func TestFailedComputeLeavesPriorState(t *testing.T) {
	store := &memStore{}
	good := testPipeline(store, metrics.DefaultOptions())
	first, err := good.MaybeRecompute(context.Background(), testCorpus())
	if err != nil {
		t.Fatal(err)
	}

	// A pipeline allowed zero iterations fails on any changed corpus.
	bad := testPipeline(store, metrics.Options{Damping: 0.85, MaxIterations: 0, Tolerance: 1e-6})
	changed := testCorpus()
	changed[1].Body += "Extra text.\n"
	_, err = bad.MaybeRecompute(context.Background(), changed)
	if !errors.Is(err, apperr.ErrNoConvergence) {
		t.Fatalf("err = %v, want ErrNoConvergence", err)
	}

	if store.commits != 1 {
		t.Errorf("failed run committed: commits = %d, want 1", store.commits)
	}
	st, err := store.State()
	if err != nil {
		t.Fatal(err)
	}
	if st.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed after failed run: %s vs %s", st.Fingerprint, first.Fingerprint)
	}
}

func TestBuildGraphDanglingKeptOutOfDegrees(t *testing.T) {
	store := &memStore{}
	p := testPipeline(store, metrics.DefaultOptions())

	proposals := []*corpus.Proposal{
		{ID: 1, Title: "One", Body: "PEP: 1\n\nRefers to PEP 404 which is absent.\n"},
	}
	res, err := p.MaybeRecompute(context.Background(), proposals)
	if err != nil {
		t.Fatal(err)
	}
	if m := res.Snapshot.Nodes[1]; m.OutDegree != 0 {
		t.Errorf("dangling target counted in out-degree: %+v", m)
	}
}
