// Package live pushes "refresh" events to browsers looking at a project so
// they reload after someone else changes it.
package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProjectID uint   `json:"project_id"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]bool
	logger  *slog.Logger
}

// client serializes writes; gorilla connections allow one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Hub{
		clients: make(map[uint]map[*client]bool),
		logger:  logger,
	}
}

// Clients returns how many connections watch projectID.
func (h *Hub) Clients(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// Broadcast sends a refresh event to every connection watching projectID.
// Connections that fail to receive it are dropped.
func (h *Hub) Broadcast(projectID uint, message string) {
	h.mu.RLock()
	clients, exists := h.clients[projectID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	targets := make([]*client, 0, len(clients))
	for c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	event := Event{Type: "refresh", Message: message, ProjectID: projectID}

	for _, c := range targets {
		if err := c.writeJSON(event); err != nil {
			h.logger.Warn("broadcast refresh", "project_id", projectID, "error", err)
			h.remove(projectID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) add(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*client]bool)
	}
	h.clients[projectID][c] = true
}

func (h *Hub) remove(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[projectID]; exists {
		delete(clients, c)

		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

// Serve registers conn for projectID and blocks until the client goes away.
// The caller has already upgraded the connection and checked access.
func (h *Hub) Serve(conn *websocket.Conn, projectID uint) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Warn("set initial read deadline", "error", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{conn: conn}

	err := c.writeJSON(Event{
		Type:      "connected",
		Message:   "WebSocket connection established",
		ProjectID: projectID,
	})
	if err != nil {
		h.logger.Warn("send welcome message", "project_id", projectID, "error", err)
		conn.Close()
		return
	}

	h.add(projectID, c)

	defer func() {
		h.remove(projectID, c)
		conn.Close()
		h.logger.Debug("websocket closed", "project_id", projectID)
	}()

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read", "project_id", projectID, "error", err)
			}
			return
		}
	}
}
