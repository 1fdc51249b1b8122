// Package websocket is the fan-out gateway. Each thread has exactly one
// logical room named by its id; clients join and leave rooms explicitly.
// Delivery is best-effort with no replay, and the hub does no authorization
// of its own.
package websocket

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/chat"
)

const clientSendBuffer = 32

type joinRequest struct {
	client   *Client
	threadID uuid.UUID
}

type outbound struct {
	threadID uuid.UUID
	data     []byte
}

// Hub owns the room membership map. All membership mutation and emission
// happens inside Run, so the map needs no lock of its own.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	leave      chan joinRequest
	publish    chan outbound

	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		leave:      make(chan joinRequest),
		publish:    make(chan outbound, 256),
		clients:    make(map[*Client]struct{}),
	}
}

// Run is the hub event loop. Call it in a goroutine before serving clients.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Printf("fanout: client %s connected", client.UserID)

		case client := <-h.unregister:
			if _, known := h.clients[client]; known {
				delete(h.clients, client)
				for threadID, room := range h.rooms {
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, threadID)
					}
				}
				close(client.send)
				log.Printf("fanout: client %s disconnected", client.UserID)
			}

		case req := <-h.join:
			room, ok := h.rooms[req.threadID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[req.threadID] = room
			}
			room[req.client] = struct{}{}

		case req := <-h.leave:
			if room, ok := h.rooms[req.threadID]; ok {
				delete(room, req.client)
				if len(room) == 0 {
					delete(h.rooms, req.threadID)
				}
			}

		case out := <-h.publish:
			for client := range h.rooms[out.threadID] {
				select {
				case client.send <- out.data:
				default:
					// Slow consumer: drop rather than block the room.
					log.Printf("fanout: dropping event for slow client %s", client.UserID)
				}
			}
		}
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) Join(c *Client, threadID uuid.UUID) {
	h.join <- joinRequest{client: c, threadID: threadID}
}

func (h *Hub) Leave(c *Client, threadID uuid.UUID) {
	h.leave <- joinRequest{client: c, threadID: threadID}
}

// Publish fans an event out to the subscribers of its thread's room.
// Fire-and-forget: marshal failures are logged, delivery is at-most-once.
func (h *Hub) Publish(event chat.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("fanout: marshal event %s: %v", event.Type, err)
		return
	}
	h.publish <- outbound{threadID: event.ThreadID, data: data}
}
