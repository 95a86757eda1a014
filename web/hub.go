package web

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"gobet-client/football"
	"gobet-client/logger"
	"gobet-client/store"
)

// Update is the notification pushed to downstream websocket clients after
// every canonical-state mutation.
type Update struct {
	Type     string          `json:"type"`
	Football []football.Game `json:"football"`
	Message  *store.Message  `json:"message,omitempty"`
}

// Client is one downstream websocket consumer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans state-change notifications out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Update
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Update, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Printf("[Hub] Client registered. Total clients: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Printf("[Hub] Client unregistered. Total clients: %d", total)

		case update := <-h.broadcast:
			data := marshalUpdate(update)
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow consumer; drop it rather than stall the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an update for all connected clients.
func (h *Hub) Broadcast(update *Update) {
	select {
	case h.broadcast <- update:
	default:
		logger.Errorf("[Hub] Broadcast queue full, update dropped")
	}
}

func marshalUpdate(update *Update) []byte {
	data, err := json.Marshal(update)
	if err != nil {
		logger.Errorf("[Hub] Failed to marshal update: %v", err)
		return []byte("{}")
	}
	return data
}

// readPump drains inbound frames so pings and close frames are processed;
// downstream clients have nothing to say on this channel.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("[Hub] WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
