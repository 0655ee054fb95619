package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/graph"
	"github.com/starford/perth/internal/propservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *propservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *propservice.Service) *Handler {
	return &Handler{svc: svc}
}

func proposalID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// ListProposals handles GET /api/proposals.
func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := q.Get("status")

	proposals, total, err := h.svc.ListProposals(r.Context(), limit, offset, status)
	if err != nil {
		slog.Error("list proposals failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]ProposalListItem, len(proposals))
	for i, p := range proposals {
		items[i] = listItem(p)
	}
	writeJSON(w, http.StatusOK, ProposalListResponse{Proposals: items, Total: total})
}

// GetProposal handles GET /api/proposals/{id}.
func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid proposal id"))
		return
	}
	detail, err := h.svc.GetProposal(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get proposal failed", slog.Int("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := h.svc.Graph(r.Context())
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Edges: edges})
}

// Metrics handles GET /api/metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Metrics(r.Context())
	if err != nil {
		slog.Error("metrics failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, MetricsResponse{Nodes: snap.Nodes})
}

// MetricsFor handles GET /api/metrics/{id}.
func (h *Handler) MetricsFor(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid proposal id"))
		return
	}
	m, err := h.svc.MetricsFor(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("metrics for proposal failed", slog.Int("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Dangling handles GET /api/dangling.
func (h *Handler) Dangling(w http.ResponseWriter, r *http.Request) {
	edges, err := h.svc.Dangling(r.Context())
	if err != nil {
		slog.Error("dangling failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if edges == nil {
		edges = []graph.Edge{}
	}
	writeJSON(w, http.StatusOK, DanglingResponse{Edges: edges})
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no completed run yet"))
			return
		}
		slog.Error("status failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Recompute handles POST /api/recompute.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Recompute(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrCorpusEmpty) {
			writeJSON(w, http.StatusConflict, errorBody("corpus is empty or unavailable"))
			return
		}
		slog.Error("recompute failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("recompute failed"))
		return
	}
	writeJSON(w, http.StatusOK, RecomputeResponse{
		DidRecompute: res.DidRecompute,
		Fingerprint:  res.Fingerprint,
		RetrievedAt:  res.RetrievedAt,
		CheckedAt:    res.CheckedAt,
	})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
