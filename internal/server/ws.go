package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ayusman/kursorin/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FramesHandler broadcasts FrameResults to websocket clients. It registers
// one frame listener on the engine and fans results out; a slow client is
// dropped rather than allowed to stall the worker.
type FramesHandler struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan engine.FrameResult
}

// NewFramesHandler creates the handler and hooks it into the engine's frame
// listener chain.
func NewFramesHandler(e *engine.Engine) *FramesHandler {
	h := &FramesHandler{
		clients: make(map[*websocket.Conn]chan engine.FrameResult),
	}
	e.OnFrame(h.broadcast)
	return h
}

// broadcast runs on the engine worker goroutine and must not block: results
// are handed to per-client buffered channels and dropped when full.
func (h *FramesHandler) broadcast(r engine.FrameResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- r:
		default:
		}
	}
}

// ServeHTTP handles websocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan engine.FrameResult, 8)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for result := range ch {
		if err := conn.WriteJSON(result); err != nil {
			return
		}
	}
}
