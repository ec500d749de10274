package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/scrypster/taskchat/internal/chat"
)

// EventsHub fans turn events out to connected websocket clients. It
// implements chat.EventSink, so the orchestrator publishes straight into it.
type EventsHub struct {
	clients     map[hubClient]bool
	broadcast   chan chat.Event
	register    chan hubClient
	unregister  chan hubClient
	originPatts []string
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// hubClient allows both real connections and test doubles.
type hubClient interface {
	sendChannel() chan []byte
	shutdown()
}

// wsClient is one live websocket connection.
type wsClient struct {
	hub  *EventsHub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) sendChannel() chan []byte {
	return c.send
}

func (c *wsClient) shutdown() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewEventsHub creates a hub. originPatterns restricts which Origins may
// upgrade (e.g. "localhost:8000").
func NewEventsHub(originPatterns ...string) *EventsHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventsHub{
		clients:     make(map[hubClient]bool),
		broadcast:   make(chan chat.Event, 256),
		register:    make(chan hubClient),
		unregister:  make(chan hubClient),
		originPatts: originPatterns,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Publish implements chat.EventSink. It never blocks; if the hub is
// saturated the event is dropped.
func (h *EventsHub) Publish(event chat.Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("WARNING: events hub channel full, dropping event")
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *EventsHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.sendChannel())
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("ERROR: failed to marshal event: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.sendChannel() <- data:
				default:
					// Slow client: disconnect rather than stall the hub.
					close(client.sendChannel())
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and closes every connection.
func (h *EventsHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.sendChannel())
		client.shutdown()
	}
	h.clients = make(map[hubClient]bool)
	h.mu.Unlock()
}

// ServeHTTP handles GET /ws upgrade requests.
func (h *EventsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatts,
	})
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) writePump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains client messages; its only job is noticing disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}

// Compile-time assertion.
var _ chat.EventSink = (*EventsHub)(nil)
