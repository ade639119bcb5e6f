// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "kunden-service/internal/domain/websocket"
	"kunden-service/internal/pkg/jwt"
	"kunden-service/internal/pkg/session"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by username
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	handlerRegistry *HandlerRegistry

	jwtVerifier *jwt.Verifier
	sessions    session.Store
	logger      *zap.Logger
}

type BroadcastMessage struct {
	Usernames []string
	Channel   wstypes.ChannelType
	Message   *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, sessions session.Store, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		jwtVerifier:     jwtVerifier,
		sessions:        sessions,
		logger:          logger,
	}
}

// AuthenticateClient validates the JWT token and the session behind it.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	blacklisted, err := h.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	if _, err := h.sessions.GetSession(ctx, claims.Username, claims.ID); err != nil {
		return nil, ErrSessionExpired
	}

	return &ClientAuth{
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
		SessionID:   claims.ID,
		Device:      claims.Device,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches to a registered handler. The bool reports
// whether one was found.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.username] == nil {
		h.clients[client.username] = make(map[*Client]bool)
	}
	h.clients[client.username][client] = true

	h.logger.Info("websocket client connected",
		zap.String("username", client.username),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"username":     client.username,
		"display_name": client.displayName,
		"session_id":   client.sessionID,
		"channels":     client.Channels(),
		"events":       h.handlerRegistry.Events(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.username]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.username)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("username", client.username),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.Usernames == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, username := range msg.Usernames {
		for client := range h.clients[username] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

// Publish queues an event for every client subscribed to the event's channel.
// It never blocks a write path: when the queue is full the event is dropped.
func (h *Hub) Publish(event wstypes.EventType, data interface{}) {
	msg := &BroadcastMessage{
		Channel: wstypes.ChannelFor(event),
		Message: wstypes.NewMessage(event, data),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, event dropped", zap.String("event", string(event)))
	}
}

// ForceLogout tells every connection of the user that the session ended.
func (h *Hub) ForceLogout(username, sessionID, reason string) {
	msg := wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
		SessionID: sessionID,
		Reason:    reason,
		Message:   "Sie wurden abgemeldet",
	})
	select {
	case h.broadcast <- &BroadcastMessage{
		Usernames: []string{username},
		Channel:   wstypes.ChannelSystem,
		Message:   msg,
	}:
	default:
		h.logger.Warn("websocket broadcast queue full, logout notice dropped", zap.String("username", username))
	}
}

func (h *Hub) GetConnectedClients(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[username])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(username string) bool {
	return h.GetConnectedClients(username) > 0
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for username, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, username)
	}
}
