package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"trackhigh/internal/config"
	"trackhigh/internal/infrastructure"
)

// Handler upgrades GET /ws requests into dashboard sessions.
type Handler struct {
	hub       *Hub
	session   SessionService
	validator RequestValidator
	cfg       config.WebSocketConfig
	origins   []string
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewHandler creates the upgrade handler. An empty origins list accepts
// any origin.
func NewHandler(hub *Hub, session SessionService, validator RequestValidator, cfg config.WebSocketConfig, origins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		hub:       hub,
		session:   session,
		validator: validator,
		cfg:       cfg,
		origins:   origins,
		logger:    infrastructure.WithComponent(logger, "websocket.handler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.ErrorContext(r.Context(), "websocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Same-origin requests and non-browser clients send no Origin
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.origins))
	return false
}

// ServeHTTP upgrades the connection and starts the session pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the request
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	client := NewClient(h.hub, conn, h.session, h.validator, h.cfg, traceID, h.logger)
	if !h.hub.Register(client) {
		h.logger.WarnContext(r.Context(), "hub stopped, refusing session")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
