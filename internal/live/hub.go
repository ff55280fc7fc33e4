// Package live fans state-change notifications out to every connected viewer.
// The presentation layer keeps one stream open (server-sent events) and redraws
// whenever a new snapshot arrives, so it never has to poll.
package live

import (
	"context"
	"sync"
)

// Client is one open stream. Send is buffered; the hub drops a client whose
// buffer is full instead of blocking everyone else.
type Client struct {
	Topic string      // Which feed this client follows, e.g. TopicState
	Send  chan []byte // Outgoing messages; closed by the hub on unregister
}

// TopicState carries full application snapshots.
const TopicState = "state"

// Message is a unit of data for every client on one topic.
type Message struct {
	Topic string
	Data  []byte
}

// Hub tracks clients per topic. All map writes happen on the Run goroutine;
// mu only lets ClientCount read safely from elsewhere.
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	mu sync.RWMutex
}

// NewHub creates a hub. Call Run in its own goroutine before using it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// NewClient returns a client for topic with a small send buffer.
func NewClient(topic string) *Client {
	return &Client{Topic: topic, Send: make(chan []byte, 16)}
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.Topic] {
				select {
				case client.Send <- msg.Data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.remove(client)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove deletes a client and closes its channel. Runs on the Run goroutine only.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.Topic]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
	}
}

// Publish queues data for every client following topic.
// After the hub has stopped it does nothing.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
	case <-h.done:
	}
}

// Register starts delivering the client's topic to it. It reports false when the
// hub has stopped; the client is then never served.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister stops delivery and closes client.Send.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns how many clients follow topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
