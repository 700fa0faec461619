package api

import "github.com/go-chi/chi/v5"

// APIPrefix is the path prefix of the versioned difficulty endpoints.
const APIPrefix = "/adaptive/api/v1"

// RegisterRoutes mounts the difficulty and health endpoints on r.
func RegisterRoutes(r chi.Router, difficultyHandler *DifficultyHandler, healthHandler *HealthHandler) {
	r.Get("/health", healthHandler.Health)
	r.Get("/adaptive/health", healthHandler.Health)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/next-difficulty", difficultyHandler.NextDifficulty)
		r.Post("/attempts", difficultyHandler.RecordAttempt)
		r.Get("/decisions", difficultyHandler.ListDecisions)
	})
}
