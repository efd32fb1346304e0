package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trackhigh/internal/config"
	apierrors "trackhigh/internal/errors"
	"trackhigh/internal/infrastructure"
	"trackhigh/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	sendBufferSize = 64
)

// Client is one dashboard session. It reads filter requests, answers them
// one at a time and relays hub broadcasts.
type Client struct {
	hub       *Hub
	conn      Connection
	session   SessionService
	validator RequestValidator
	cfg       config.WebSocketConfig

	// Buffered channel of outbound messages
	send     chan []byte
	sendMu   sync.Mutex
	sendDone bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

// NewClient creates a client for an upgraded connection. traceID may be
// empty.
func NewClient(hub *Hub, conn Connection, session SessionService, validator RequestValidator, cfg config.WebSocketConfig, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		session:     session,
		validator:   validator,
		cfg:         withDefaults(cfg),
		send:        make(chan []byte, sendBufferSize),
		id:          id,
		traceID:     traceID,
		remoteAddr:  remote,
		connectedAt: time.Now(),
		logger:      logger,
	}
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	// Pings must go out before the peer's pong deadline
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}
	return cfg
}

// ID returns the session id.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues a frame without blocking. It reports false when the
// buffer is full or the session is closed.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendDone {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue once, which ends WritePump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendDone {
		c.sendDone = true
		close(c.send)
	}
}

func (c *Client) reply(ctx context.Context, msg events.ServerMessage) bool {
	if msg.TraceID == "" {
		msg.TraceID = c.traceID
	}
	data, err := msg.Encode()
	if err != nil {
		c.logger.ErrorContext(ctx, "error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return false
	}
	if !c.enqueue(data) {
		c.logger.WarnContext(ctx, "dropping message, send buffer unavailable",
			slog.String("message_type", string(msg.Type)))
		return false
	}
	c.hub.metrics.RecordSessionMessage(ctx, "out", string(msg.Type))
	return true
}

func (c *Client) replyError(ctx context.Context, id, code, message string, details interface{}, retry bool) {
	c.reply(ctx, events.NewServerMessage(events.MessageTypeError, id, events.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
		Retry:   retry,
	}))
}

// ReadPump reads requests until the connection fails. Each request is
// answered before the next one is read.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.logger.InfoContext(ctx, "websocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.ErrorContext(ctx, "unexpected websocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived.Add(1)
		c.handleMessage(ctx, message)
	}
}

// handleMessage answers one client request.
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var msg events.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.hub.metrics.RecordSessionMessage(ctx, "in", "invalid")
		c.replyError(ctx, "", "INVALID_MESSAGE", "message is not valid JSON", err.Error(), false)
		return
	}
	c.hub.metrics.RecordSessionMessage(ctx, "in", string(msg.Type))

	switch msg.Type {
	case events.MessageTypeHeartbeat:
		c.logger.DebugContext(ctx, "heartbeat received")

	case events.MessageTypeFilter, events.MessageTypeOptions:
		c.handleFilter(ctx, msg)

	default:
		c.replyError(ctx, msg.ID, "UNKNOWN_TYPE", "unsupported message type", string(msg.Type), false)
	}
}

func (c *Client) handleFilter(ctx context.Context, msg events.ClientMessage) {
	if msg.Filter == nil {
		c.replyError(ctx, msg.ID, "VALIDATION_FAILED", "filter is required", nil, false)
		return
	}
	if c.validator != nil {
		if err := c.validator.ValidateStruct(*msg.Filter); err != nil {
			var apiErr *apierrors.APIError
			if errors.As(err, &apiErr) {
				c.replyError(ctx, msg.ID, apiErr.ErrorCode, apiErr.Message, apiErr.Details, false)
			} else {
				c.replyError(ctx, msg.ID, "VALIDATION_FAILED", err.Error(), nil, false)
			}
			return
		}
	}

	spec, err := msg.Filter.ToSpec()
	if err != nil {
		c.replyError(ctx, msg.ID, "VALIDATION_FAILED", err.Error(), nil, false)
		return
	}

	var data interface{}
	msgType := events.MessageTypeView
	if msg.Type == events.MessageTypeOptions {
		msgType = events.MessageTypeOptionSet
		data, err = c.session.Options(spec)
	} else {
		data, err = c.session.View(ctx, spec)
	}
	if err != nil {
		if apierrors.IsType(err, apierrors.ErrTypeUnavailable) {
			c.replyError(ctx, msg.ID, "NO_DATA", "no data loaded", nil, true)
			return
		}
		c.logger.ErrorContext(ctx, "session request failed",
			slog.String("message_type", string(msg.Type)),
			slog.String("error", err.Error()))
		c.replyError(ctx, msg.ID, "INTERNAL_SERVER_ERROR", "request could not be processed", nil, true)
		return
	}

	c.reply(ctx, events.NewServerMessage(msgType, msg.ID, data))
}

// WritePump writes queued messages and keeps the connection alive with
// pings. It returns when the send queue is closed or a write fails.
func (c *Client) WritePump() {
	ctx := c.context()
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(ctx, "websocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(ctx, "error writing message to websocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
