package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/natya/internal/app"
)

const (
	// clientBuffer is how many evaluations may queue for a slow client before
	// new ones are dropped for it.
	clientBuffer = 16
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedbackHub pushes every evaluation to connected WebSocket clients.
type FeedbackHub struct {
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
}

// NewFeedbackHub creates an empty FeedbackHub. Register Broadcast with
// app.App.OnEvaluation to feed it.
func NewFeedbackHub() *FeedbackHub {
	return &FeedbackHub{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FeedbackHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(conn, send, done)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		close(send)
		<-done
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writeLoop is the only writer of conn.
func (h *FeedbackHub) writeLoop(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			// Drain so Broadcast never blocks on this client.
			for range send {
			}
			return
		}
	}
}

// Broadcast sends an evaluation to all connected clients without blocking.
func (h *FeedbackHub) Broadcast(e app.Evaluation) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Printf("failed to encode evaluation: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *FeedbackHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
