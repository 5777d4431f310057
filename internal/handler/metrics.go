package handler

import (
	"net/http"

	"github.com/shopcore/shopcore/internal/metrics"
)

// MetricsHandler exposes a JSON snapshot of in-process counters.
// Intended for internal scraping and debugging, not public traffic.
type MetricsHandler struct {
	snap metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snap metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snap: snap}
}

// Get handles GET /internal/metrics.
func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.snap.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"login_successes":  s.LoginSuccesses,
		"login_failures":   s.LoginFailures,
		"registrations":    s.Registrations,
		"auth_rejections":  s.AuthRejections,
		"rate_limited":     s.RateLimited,
		"products_created": s.ProductsCreated,
	})
}
