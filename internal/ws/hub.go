// Package ws fans alert broadcasts out to connected dashboard clients over
// WebSocket, mirroring the MQTT broadcast for browser consumers.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope wraps a broadcast payload with its topic so clients can filter.
type envelope struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Hub tracks connected dashboard clients and broadcasts alert payloads to
// all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	broadcast chan []byte
}

// NewHub creates an idle hub; call Run to start delivery.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 64),
	}
}

// Run delivers queued broadcasts until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case data := <-h.broadcast:
			h.deliver(data)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) deliver(data []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write failed, dropping client: %v", err)
			h.remove(conn)
		}
	}
}

// Publish queues an alert payload for all connected clients. Never blocks:
// when the queue is full the payload is dropped, matching the fire-and-forget
// broadcast contract.
func (h *Hub) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(envelope{Topic: topic, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal websocket broadcast: %w", err)
	}

	select {
	case h.broadcast <- data:
		return nil
	default:
		return fmt.Errorf("websocket broadcast queue full, dropped message for %s", topic)
	}
}

// ServeWS upgrades an HTTP request to a WebSocket client connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("Dashboard client connected (%d total)", count)

	// Reader loop exists only to notice disconnects; clients never send.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
