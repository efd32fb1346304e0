package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trackhigh/internal/websocket"
)

// MetricsHandler serves the Prometheus scrape endpoint and the session
// hub counters
type MetricsHandler struct {
	prometheus http.Handler
	hub        *websocket.Hub
}

// NewMetricsHandler wraps the exporter's scrape handler. A nil handler
// falls back to the default Prometheus registry; hub may be nil.
func NewMetricsHandler(prometheus http.Handler, hub *websocket.Hub) *MetricsHandler {
	if prometheus == nil {
		prometheus = promhttp.Handler()
	}
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.prometheus.ServeHTTP(w, r)
}

// Routes returns the JSON metrics routes, mounted under /api/metrics
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/sessions", h.GetSessions)
	return r
}

// GetSessions handles GET /api/metrics/sessions
func (h *MetricsHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	var stats websocket.HubStats
	if h.hub != nil {
		stats = h.hub.Stats()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}
