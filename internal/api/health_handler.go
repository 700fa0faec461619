package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/adaptive-api/internal/api/shared"
)

// HealthHandler reports liveness and build information.
type HealthHandler struct {
	service          string
	version          string
	mlModelAvailable bool
	now              func() time.Time
}

// NewHealthHandler creates a HealthHandler. mlModelAvailable reports whether a
// difficulty predictor is configured.
func NewHealthHandler(service, version string, mlModelAvailable bool) *HealthHandler {
	return &HealthHandler{
		service:          service,
		version:          version,
		mlModelAvailable: mlModelAvailable,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Health handles GET /health and GET /adaptive/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Service:          h.service,
		Version:          h.version,
		MLModelAvailable: h.mlModelAvailable,
		Timestamp:        h.now(),
	})
}
