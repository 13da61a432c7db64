package websocket

import (
	"context"
	"sync"

	"relay-chat/pkg/events"
)

// subscriptionRequest represents a room join/leave request
type subscriptionRequest struct {
	client    *Client
	room      string
	subscribe bool // true = join, false = leave
}

// Hub owns the process-wide mapping from chat room to live subscriber
// connections. It is mutated only by connection lifecycle events and read at
// broadcast time; no persistent entity lives here.
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client (for cleanup)
	clients map[string]*Client

	// rooms maps room name to the set of clients joined to it
	rooms map[string]map[*Client]struct{}

	register     chan *Client
	unregister   chan *Client
	subscription chan subscriptionRequest
}

// NewHub creates a new fanout hub
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		rooms:        make(map[string]map[*Client]struct{}),
		register:     make(chan *Client, 256),
		unregister:   make(chan *Client, 256),
		subscription: make(chan subscriptionRequest, 512),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.subscription:
			if req.subscribe {
				h.joinRoom(req.client, req.room)
			} else {
				h.leaveRoom(req.client, req.room)
			}
		}
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and all its rooms
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds a client to a room
func (h *Hub) Join(client *Client, room string) {
	h.subscription <- subscriptionRequest{client: client, room: room, subscribe: true}
}

// Leave removes a client from a room
func (h *Hub) Leave(client *Client, room string) {
	h.subscription <- subscriptionRequest{client: client, room: room, subscribe: false}
}

// Broadcast sends an event to every client joined to a room
func (h *Hub) Broadcast(room string, ev events.Event) {
	payload := ev.Marshal()
	if payload == nil {
		return
	}
	h.mu.RLock()
	for c := range h.rooms[room] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastExcept sends an event to every client in a room except the
// originating connection. Used for ephemeral typing signals.
func (h *Hub) BroadcastExcept(room string, except *Client, ev events.Event) {
	payload := ev.Marshal()
	if payload == nil {
		return
	}
	h.mu.RLock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients joined to a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Drop the client from every room it had joined; no departure event is
	// broadcast (presence is out of scope).
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) joinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.joined(room)
}

func (h *Hub) leaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.left(room)
}
