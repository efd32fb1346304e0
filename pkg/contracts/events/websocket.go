// Package events contains the message contracts of the dashboard's
// WebSocket session channel.
package events

import (
	"encoding/json"
	"time"

	api "trackhigh/pkg/contracts/api/v1"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeFilter    MessageType = "filter"
	MessageTypeOptions   MessageType = "options"
	MessageTypeHeartbeat MessageType = "heartbeat"

	// Server to client
	MessageTypeConnection MessageType = "connection"
	MessageTypeView       MessageType = "view"
	MessageTypeOptionSet  MessageType = "option_set"
	MessageTypeReload     MessageType = "reload"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"` // echoes the request id
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ClientMessage is a request sent by the browser. Filter is required for
// the filter and options types.
type ClientMessage struct {
	ID     string             `json:"id,omitempty"`
	Type   MessageType        `json:"type"`
	Filter *api.FilterRequest `json:"filter,omitempty"`
}

// ServerMessage is every message written by the server.
type ServerMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewServerMessage stamps a message with the current time.
func NewServerMessage(msgType MessageType, id string, data interface{}) ServerMessage {
	return ServerMessage{
		BaseMessage: BaseMessage{
			ID:        id,
			Type:      msgType,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
}

// Encode marshals the message for the wire.
func (m ServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ConnectionData greets a newly registered client.
type ConnectionData struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	Loaded   bool   `json:"loaded"`
}

// ReloadData announces a new snapshot. Clients re-send their filter to
// refresh the view.
type ReloadData struct {
	LoadID   string    `json:"load_id"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
	Source   string    `json:"source"`
}

// ErrorData describes a rejected request.
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Retry   bool        `json:"retry"`
}
