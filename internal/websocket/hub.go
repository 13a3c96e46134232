package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/shopcart-backend/internal/app/dto"
	"github.com/ikkim/shopcart-backend/internal/app/service"
	"github.com/ikkim/shopcart-backend/pkg/logger"
)

const (
	EventCartUpdated = "cart_updated"

	sendBufferSize    = 16
	publishBufferSize = 1024
)

type Event struct {
	Type string           `json:"type"`
	Cart dto.CartResponse `json:"cart"`
}

type userMessage struct {
	userID  string
	payload []byte
}

// Hub fans cart events out to every open session of a user.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	publish    chan userMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		publish:    make(chan userMessage, publishBufferSize),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userID, sessions := range h.clients {
				for client := range sessions {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.clients[client.UserID]
			if !ok {
				sessions = make(map[*Client]struct{})
				h.clients[client.UserID] = sessions
			}
			sessions[client] = struct{}{}
			count := len(sessions)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": count,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.publish:
			h.mu.RLock()
			var stalled []*Client
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.payload:
				default:
					stalled = append(stalled, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stalled {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := sessions[client]; !ok {
		return
	}
	delete(sessions, client)
	close(client.send)
	if len(sessions) == 0 {
		delete(h.clients, client.UserID)
	}

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(sessions),
	})
}

// Publish queues v for every session of userID. Events are dropped when the
// hub is saturated.
func (h *Hub) Publish(userID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case h.publish <- userMessage{userID: userID, payload: data}:
	default:
		logger.Warn("Publish channel full, event dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// NotifyCartUpdated pushes the committed cart to the owner's sessions in the
// same shape the REST API returns.
func (h *Hub) NotifyCartUpdated(userID string, detail *service.CartDetail) {
	if err := h.Publish(userID, Event{Type: EventCartUpdated, Cart: dto.NewCartResponse(detail)}); err != nil {
		logger.Error("Failed to publish cart update", err, map[string]interface{}{
			"user_id": userID,
		})
	}
}

func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
