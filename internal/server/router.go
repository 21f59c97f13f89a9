package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", s.handleHealth())
	r.Handle("/metrics", s.metrics.Handler())

	// Everything else is protected when a token is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.AuthToken != "" {
			r.Use(authMiddleware(s.cfg.Server.AuthToken))
		}

		r.Get("/status", s.handleStatus())
		r.Post("/compile", s.handleCompile())

		r.Route("/attention", func(r chi.Router) {
			r.Get("/", s.handleAttentionShow())
			r.Post("/reinforce", s.handleAttentionReinforce())
			r.Post("/decay", s.handleAttentionDecay())
		})

		r.Route("/integrity", func(r chi.Router) {
			r.Post("/snapshot", s.handleIntegritySnapshot())
			r.Get("/check", s.handleIntegrityCheck())
			r.Post("/restore", s.handleIntegrityRestore())
		})
	})

	return r
}
