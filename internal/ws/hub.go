package ws

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

type delivery struct {
	userIDs []uuid.UUID
	message []byte
}

// Hub tracks live connections per user and delivers messages only to the
// users named on each delivery.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		deliver:    make(chan delivery, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			total := h.countLocked()
			h.mutex.Unlock()
			if h.logger != nil {
				h.logger.Printf("[WS] connected user_id=%s total_clients=%d", client.userID, total)
			}

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.removeLocked(client)
			total := h.countLocked()
			h.mutex.Unlock()
			if h.logger != nil {
				h.logger.Printf("[WS] disconnected user_id=%s total_clients=%d", client.userID, total)
			}

		case d := <-h.deliver:
			h.mutex.RLock()
			targets := make([]*Client, 0)
			seen := make(map[uuid.UUID]bool, len(d.userIDs))
			for _, id := range d.userIDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				for c := range h.clients[id] {
					targets = append(targets, c)
				}
			}
			h.mutex.RUnlock()

			var slow []*Client
			for _, client := range targets {
				select {
				case client.send <- d.message:
				default:
					slow = append(slow, client)
				}
			}
			if len(slow) > 0 {
				h.mutex.Lock()
				for _, c := range slow {
					h.removeLocked(c)
				}
				h.mutex.Unlock()
			}
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

// SendTo queues message for every connection of the given users. It never
// blocks; a full queue drops the message.
func (h *Hub) SendTo(userIDs []uuid.UUID, message []byte) bool {
	if h == nil || len(userIDs) == 0 {
		return false
	}
	select {
	case h.deliver <- delivery{userIDs: userIDs, message: message}:
		return true
	default:
		if h.logger != nil {
			h.logger.Printf("[WS] delivery dropped reason=buffer_full")
		}
		return false
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.countLocked()
}
