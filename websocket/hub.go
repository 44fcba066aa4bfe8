package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventItemSaved    EventType = "ITEM_SAVED"
	EventItemsSaved   EventType = "ITEMS_SAVED"
	EventItemDeleted  EventType = "ITEM_DELETED"
	EventIndexDeleted EventType = "INDEX_DELETED"
	EventSubscribe    EventType = "SUBSCRIBE"
	EventUnsubscribe  EventType = "UNSUBSCRIBE"
	EventError        EventType = "ERROR"
)

// AllIndices subscribes a client to changes of every index.
const AllIndices = "*"

// IndexEvent is one change notification sent to subscribers of Index.
type IndexEvent struct {
	Type      EventType   `json:"type"`
	Index     string      `json:"index,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client is one subscriber. Send is never closed; done is closed once the
// hub lets go of the client.
type Client struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	Hub     *Hub
	Send    chan IndexEvent
	done    chan struct{}
	once    sync.Once
	indices map[string]bool
	mu      sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, indices ...string) *Client {
	c := &Client{
		ID:      uuid.New(),
		Conn:    conn,
		Hub:     hub,
		Send:    make(chan IndexEvent, 256),
		done:    make(chan struct{}),
		indices: make(map[string]bool),
	}
	for _, idx := range indices {
		c.indices[idx] = true
	}
	return c
}

// Hub fans index events out to the clients subscribed to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan IndexEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan IndexEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.broadcastToIndex(event)
		}
	}
}

// Publish queues an event for the subscribers of index. It never blocks
// the writer; when the queue is full the event is dropped.
func (h *Hub) Publish(index string, eventType EventType, payload interface{}) {
	event := IndexEvent{Type: eventType, Index: index, Payload: payload, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Index event dropped, broadcast queue full",
			zap.String("index", index),
			zap.String("type", string(eventType)))
	}
}

func (h *Hub) broadcastToIndex(event IndexEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.IsSubscribed(event.Index) {
			continue
		}
		select {
		case client.Send <- event:
		default:
			// slow consumer
			client.close()
			delete(h.clients, client)
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; after the hub stopped it is a no-op.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// deliver queues an event unless the client was dropped or its buffer is
// full.
func (c *Client) deliver(event IndexEvent) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- event:
	default:
	}
}

func (c *Client) Subscribe(index string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices[index] = true
}

func (c *Client) Unsubscribe(index string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.indices, index)
}

func (c *Client) IsSubscribed(index string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indices[index] || c.indices[AllIndices]
}
