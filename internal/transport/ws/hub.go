package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/logging"
)

// Hub tracks the open sessions of every user and fans events out to them.
type Hub struct {
	// clients maps userID → that user's sessions.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	publish    chan *userMsg
	done       chan struct{}

	log logging.Logger
}

type userMsg struct {
	userID uuid.UUID
	data   []byte
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *userMsg, 256),
		done:       make(chan struct{}),
		log:        log.With("component", "ws_hub"),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// closing every session.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, sessions := range h.clients {
				for client := range sessions {
					h.drop(client)
				}
			}
			return nil

		case client := <-h.register:
			sessions, ok := h.clients[client.userID]
			if !ok {
				sessions = make(map[*Client]struct{})
				h.clients[client.userID] = sessions
			}
			sessions[client] = struct{}{}
			h.log.Debug(ctx, "session opened", "user_id", client.userID, "sessions", len(sessions))

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID][client]; ok {
				h.drop(client)
				h.log.Debug(ctx, "session closed", "user_id", client.userID)
			}

		case msg := <-h.publish:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	sessions := h.clients[client.userID]
	delete(sessions, client)
	if len(sessions) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.done)
}

// Publish queues an event for every session of userID. Events published
// after the hub stopped are discarded.
func (h *Hub) Publish(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error(context.Background(), "marshal event", "type", event.Type, "error", err)
		return
	}
	select {
	case h.publish <- &userMsg{userID: userID, data: data}:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
