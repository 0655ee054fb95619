package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/perth/internal/propservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *propservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Proposals.
	r.Get("/proposals", h.ListProposals)
	r.Get("/proposals/{id}", h.GetProposal)

	// Graph and metrics.
	r.Get("/graph", h.Graph)
	r.Get("/metrics", h.Metrics)
	r.Get("/metrics/{id}", h.MetricsFor)
	r.Get("/dangling", h.Dangling)

	// Pipeline state and control.
	r.Get("/status", h.Status)
	r.Post("/recompute", h.Recompute)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
