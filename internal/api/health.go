package api

import (
	"net/http"
	"time"

	"github.com/tripplanner/itinerary-service/internal/api/respond"
)

type ServiceHealth interface {
	IsHealthy() bool
	Components() map[string]bool
}

type HealthHandler struct {
	svc ServiceHealth
}

func NewHealthHandler(svc ServiceHealth) *HealthHandler { return &HealthHandler{svc: svc} }

// CheckHealth handles GET /api/health. 503 while any component is unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if !h.svc.IsHealthy() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": h.svc.Components(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
