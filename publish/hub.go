package publish

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON encoded frame result
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data such as a JPEG frame
	BinaryMessage
)

// Message is broadcast to every client of a Hub
type Message struct {
	Type MessageType
	Data []byte
}

// Hub maintains the set of active websocket clients and fans messages out
// to them
type Hub struct {
	name       string
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        logrus.FieldLogger
}

// NewHub returns a Hub, Run must be called to start delivering messages
func NewHub(name string, log logrus.FieldLogger) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithField("hub", name),
	}
}

// Run delivers messages to clients until the context is cancelled, all
// clients are then disconnected
func (h *Hub) Run(ctx context.Context) {

	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.log.WithField("clients", count).Info("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.log.WithField("clients", count).Info("client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// client is too slow to keep up
					close(client.send)
					delete(h.clients, client)
					h.log.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// add registers a client, it returns false once the hub has stopped
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove unregisters a client
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a message for all clients, the message is dropped if the
// queue is full
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Debug("broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
