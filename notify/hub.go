// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one real-time message published to an event room (or to every
// connected client when the room is empty).
type Event struct {
	Type    string      `json:"type"`
	EventID string      `json:"event_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notification type constants
const (
	TypeEventCreated = "eventCreated"
	TypeVoteUpdate   = "voteUpdate"
	TypeCountUpdate  = "countUpdate"
	TypeCodeRotated  = "codeRotated"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are vetted upstream; the API itself is CORS-open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks WebSocket subscribers per event room and fans published
// notifications out to them. Publishing is best-effort: a slow or dead
// subscriber is dropped, and no failure ever reaches the caller.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers an event to every subscriber of the room without
// blocking. Subscribers whose buffers are full miss the message.
func (h *Hub) Publish(eventID string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[eventID] {
		select {
		case sub.send <- evt:
		default:
			// Buffer full; at-most-once delivery, skip.
		}
	}
}

// Broadcast delivers an event to every subscriber of every room.
func (h *Hub) Broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, room := range h.rooms {
		for sub := range room {
			select {
			case sub.send <- evt:
			default:
			}
		}
	}
}

// RoomSize reports the number of subscribers in a room.
func (h *Hub) RoomSize(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

func (h *Hub) add(eventID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[eventID] == nil {
		h.rooms[eventID] = make(map[*subscriber]struct{})
	}
	h.rooms[eventID][sub] = struct{}{}
}

func (h *Hub) remove(eventID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[eventID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, eventID)
		}
	}
}

// ServeWS handles GET /events/{id}/ws and subscribes the connection to the
// event's room until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		http.Error(w, "event id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, 16)}
	h.add(eventID, sub)

	go h.writeLoop(eventID, sub)
	go h.readLoop(eventID, sub)
}

func (h *Hub) writeLoop(eventID string, sub *subscriber) {
	for evt := range sub.send {
		if err := sub.conn.WriteJSON(evt); err != nil {
			slog.Debug("websocket write failed", "event_id", eventID, "error", err)
			h.drop(eventID, sub)
			return
		}
	}
}

// readLoop discards inbound frames; clients are listen-only. Its real job
// is detecting the close handshake.
func (h *Hub) readLoop(eventID string, sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.drop(eventID, sub)
			return
		}
	}
}

func (h *Hub) drop(eventID string, sub *subscriber) {
	h.mu.Lock()
	room, ok := h.rooms[eventID]
	var present bool
	if ok {
		_, present = room[sub]
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, eventID)
		}
	}
	h.mu.Unlock()

	if present {
		close(sub.send)
		sub.conn.Close()
	}
}
