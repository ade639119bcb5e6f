// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Record events (server -> client)
	EventTypeCustomerCreated EventType = "customer:created"
	EventTypeCustomerUpdated EventType = "customer:updated"
	EventTypeCustomerDeleted EventType = "customer:deleted"
	EventTypeCommentAdded    EventType = "comment:added"

	// Query events (client -> server)
	EventTypeCustomerFilter   EventType = "customers:filter"
	EventTypeCustomerComments EventType = "customers:comments"

	// Audit events
	EventTypeAuditLog EventType = "audit:log"

	// Backup events
	EventTypeBackupCreated  EventType = "backup:created"
	EventTypeBackupRestored EventType = "backup:restored"

	// Session events
	EventTypeForceLogout EventType = "session:force_logout"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelCustomers ChannelType = "customers"
	ChannelAudit     ChannelType = "audit"
	ChannelBackups   ChannelType = "backups"
	ChannelSystem    ChannelType = "system"
)

// ChannelFor maps an event to the channel it is broadcast on.
func ChannelFor(event EventType) ChannelType {
	switch event {
	case EventTypeCustomerCreated, EventTypeCustomerUpdated, EventTypeCustomerDeleted, EventTypeCommentAdded:
		return ChannelCustomers
	case EventTypeAuditLog:
		return ChannelAudit
	case EventTypeBackupCreated, EventTypeBackupRestored:
		return ChannelBackups
	default:
		return ChannelSystem
	}
}

// SubscribeRequest sent by client to subscribe to specific channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// UnsubscribeRequest sent by client to unsubscribe from channels
type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RecordEventData tells editors which customer row changed and who changed it.
type RecordEventData struct {
	CustomerID int64       `json:"customer_id"`
	Actor      string      `json:"actor"`
	Record     interface{} `json:"record,omitempty"`
}

// SessionEventData for session events
type SessionEventData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// Publisher pushes an event to every connected client subscribed to its channel.
type Publisher interface {
	Publish(event EventType, data interface{})
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
