package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub keeps the live connections of each user and pushes notifications to them.
type Hub struct {
	// Registered clients grouped by user ID; a user may have several tabs open
	clients map[int64]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// done is closed once Run has returned
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// Message is the JSON frame pushed to a connected user.
type Message struct {
	Type           string    `json:"type"`
	UserID         int64     `json:"userId"`
	NotificationID int64     `json:"notificationId,omitempty"`
	EventID        int64     `json:"eventId"`
	Summary        string    `json:"summary"`
	Link           string    `json:"link,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MessageTypeNotification marks a new in-app notification.
const MessageTypeNotification = "notification"

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is cancelled.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register hands client to the running hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the running hub. After the hub has stopped it is a no-op.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Info().Int64("userID", client.userID).Msg("Client unregistered")
}

func (h *Hub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", message.UserID).Msg("Failed to marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[message.UserID]
	if !ok {
		h.logger.Debug().Int64("userID", message.UserID).Msg("No live connection for user")
		return
	}

	for client := range conns {
		select {
		case client.send <- data:
		default:
			// send buffer full, drop the slow connection
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// Send queues message for the user it is addressed to. It never blocks the caller; when
// the queue is full the message is dropped and logged.
func (h *Hub) Send(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Int64("userID", message.UserID).Msg("Hub queue full, dropping message")
	}
}

// ClientCount returns the number of live connections of userID.
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
