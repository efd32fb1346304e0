package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trackhigh/internal/infrastructure"
	"trackhigh/internal/store"
	"trackhigh/pkg/contracts/events"
)

// Hub maintains the set of open sessions and fans reload notices out to
// them. Replies to a session's own requests bypass the hub.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// HubStats is a point-in-time view of the hub counters.
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	DroppedClients   int64 `json:"dropped_clients"`
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. It is a no-op when the
// hub is already running.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "closed")

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.RecordSessionChange(ctx, 1)
	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	loaded := client.session != nil && client.session.Ready()
	client.reply(ctx, events.NewServerMessage(events.MessageTypeConnection, "", events.ConnectionData{
		ClientID: client.id,
		Status:   "connected",
		Loaded:   loaded,
	}))
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	count := len(h.clients)
	h.mu.Unlock()

	client.closeSend()

	ctx := client.context()
	h.metrics.RecordSessionChange(ctx, -1)
	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failed := 0
	for _, client := range clients {
		if client.enqueue(message) {
			h.mu.Lock()
			h.messagesSent++
			h.mu.Unlock()
			continue
		}
		// Send buffer full, the client is too slow to keep
		failed++
		h.mu.Lock()
		h.droppedClients++
		h.mu.Unlock()
		h.removeClient(client, "send buffer full")
	}

	if failed > 0 {
		h.logger.Warn("some clients failed to receive broadcast",
			slog.Int("success_count", len(clients)-failed),
			slog.Int("fail_count", failed))
	}
}

// Register adds a client to the hub. It returns false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client. Safe to call after Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// BroadcastReload tells every session that a new snapshot is in place.
// It has the signature of a reload listener.
func (h *Hub) BroadcastReload(snap *store.Snapshot) {
	if snap == nil {
		return
	}
	msg := events.NewServerMessage(events.MessageTypeReload, "", events.ReloadData{
		LoadID:   snap.LoadID.String(),
		LoadedAt: snap.LoadedAt,
		Records:  len(snap.Records),
		Source:   snap.Source,
	})
	data, err := msg.Encode()
	if err != nil {
		h.logger.Error("error marshaling reload message", slog.String("error", err.Error()))
		return
	}

	h.metrics.RecordSessionMessage(context.Background(), "out", string(events.MessageTypeReload))
	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		ActiveClients:    len(h.clients),
		TotalConnections: h.totalConnections,
		MessagesSent:     h.messagesSent,
		DroppedClients:   h.droppedClients,
	}
}

// Stop ends the hub loop and closes every session. It is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
		h.metrics.RecordSessionChange(context.Background(), -1)
	}
}
