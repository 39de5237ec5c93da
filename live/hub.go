package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/confdesk/conference-system/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusEvent struct {
	PaperID int                `json:"paper_id"`
	Status  models.PaperStatus `json:"status"`
}

type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	isClosed bool
	mu       sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 16),
	}
}

// Hub fans paper status events out to connected admin dashboards. There is a
// single broadcast group; every connected client sees every event.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.logger.Info("dashboard client connected", slog.Int("clients", len(h.clients)))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				client.mu.Lock()
				if !client.isClosed {
					close(client.Send)
					client.isClosed = true
				}
				client.mu.Unlock()
				delete(h.clients, client)
				h.logger.Info("dashboard client disconnected", slog.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.mu.Lock()
				if client.isClosed {
					client.mu.Unlock()
					continue
				}
				select {
				case client.Send <- message:
				default:
					// Slow client; skip rather than block the hub.
				}
				client.mu.Unlock()
			}
			h.mu.RUnlock()
		}
	}
}

// PublishStatus pushes a paper status transition to every connected client.
// It never blocks the state transition that triggered it.
func (h *Hub) PublishStatus(paperID int, status models.PaperStatus) {
	message, err := json.Marshal(Message{
		Type:    "PAPER_STATUS",
		Payload: StatusEvent{PaperID: paperID, Status: status},
	})
	if err != nil {
		h.logger.Error("failed to marshal status event", slog.Any("error", err))
		return
	}
	select {
	case h.Broadcast <- message:
	default:
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		// Inbound messages are ignored; the dashboard stream is one-way.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
