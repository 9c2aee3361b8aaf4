// Package ws implements the realtime layer: a room-scoped broadcast hub and
// the WebSocket client pumps that feed it.
//
// The hub is an explicit subscription table (room code → set of clients)
// rather than a transport-level grouping, so its behavior is testable without
// a live socket. Publishing is fire-and-forget: the payload is marshaled once
// and handed to each subscriber's buffered queue with a non-blocking send; a
// slow or dead subscriber drops messages instead of stalling the room.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Envelope is the wire format for every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub maintains the room subscription table and delivers events to the
// clients subscribed to a room at the moment of publish. It is safe for
// concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Subscribe associates a client with a room. A client may be subscribed to
// multiple rooms; subscribing twice is idempotent.
func (h *Hub) Subscribe(c *Client, roomCode string) {
	if c == nil {
		return
	}
	h.mu.Lock()
	set, ok := h.rooms[roomCode]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[roomCode] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe removes the association between a client and a room. Unknown
// pairs are a no-op. Emptied rooms are removed from the table.
func (h *Hub) Unsubscribe(c *Client, roomCode string) {
	h.mu.Lock()
	if set, ok := h.rooms[roomCode]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, roomCode)
		}
	}
	h.mu.Unlock()
}

// dropClient removes the client from every room it is subscribed to. Called
// once from the client's read pump on disconnect.
func (h *Hub) dropClient(c *Client) {
	h.mu.Lock()
	for code, set := range h.rooms {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()
}

// Publish delivers a named event to every client currently subscribed to
// roomCode. The payload is marshaled once; delivery to each client is
// non-blocking and unreported, per the best-effort contract. Clients that
// subscribe after publish starts receive nothing.
func (h *Hub) Publish(roomCode, event string, payload any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).
			Str("component", "hub").
			Str("room", roomCode).
			Str("event", event).
			Msg("marshal broadcast payload")
		return
	}

	h.mu.RLock()
	set := h.rooms[roomCode]
	// Copy the recipients so the lock is not held while sending.
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// Queue full: the peer is slow or gone. Its read pump will tear
			// the connection down; dropping here keeps the room live.
			log.Warn().
				Str("component", "hub").
				Str("room", roomCode).
				Str("event", event).
				Msg("client send queue full, dropping event")
		}
	}
}

// SubscriberCount reports how many clients are subscribed to a room.
func (h *Hub) SubscriberCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
