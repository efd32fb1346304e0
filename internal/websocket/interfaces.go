package websocket

import (
	"context"
	"net"
	"time"

	"trackhigh/pkg/contracts/domain"
)

// Connection is the part of *websocket.Conn a client uses.
// It allows for proper mocking in tests
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() net.Addr
}

// SessionService answers the filter requests of a session.
type SessionService interface {
	View(ctx context.Context, spec domain.FilterSpec) (domain.View, error)
	Options(spec domain.FilterSpec) (domain.OptionSet, error)
	Ready() bool
}

// RequestValidator checks a decoded request struct.
type RequestValidator interface {
	ValidateStruct(v interface{}) error
}
