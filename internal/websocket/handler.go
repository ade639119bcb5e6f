// internal/websocket/handler.go
package websocket

import (
	"context"
	"encoding/json"
	"sort"

	wstypes "kunden-service/internal/domain/websocket"
)

// MessageHandler answers client requests for one group of event types.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry maps request events to their handler. A later
// registration for the same event replaces the earlier one.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[wstypes.EventType]MessageHandler)}
}

func (r *HandlerRegistry) Register(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		r.handlers[eventType] = handler
	}
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}

// Events lists the registered request events, sorted.
func (r *HandlerRegistry) Events() []wstypes.EventType {
	events := make([]wstypes.EventType, 0, len(r.handlers))
	for eventType := range r.handlers {
		events = append(events, eventType)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// DecodeData decodes a message payload into target. A missing payload
// leaves target untouched.
func DecodeData(data interface{}, target interface{}) error {
	if data == nil {
		return nil
	}
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, target)
}
