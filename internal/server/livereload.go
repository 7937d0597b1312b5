package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bookforge/bookforge/internal/metrics"
)

// LiveReloadHub manages SSE clients for rebuild notifications.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	lastTick string
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates an SSE hub.
func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]*lrClient{}, recorder: rec}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastTick
	h.mu.Unlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"tick\":\"" + current + "\"}\n\n"); err != nil {
			slog.Debug("livereload write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				h.removeClient(client.id)
				return
			}
		case tick := <-client.ch:
			if _, err := bw.WriteString("data: {\"tick\":\"" + tick + "\"}\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				h.removeClient(client.id)
				return
			}
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast notifies every connected client; clients with full channels are
// skipped rather than blocked on.
func (h *LiveReloadHub) Broadcast(tick string) {
	h.mu.Lock()
	h.lastTick = tick
	clients := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.ch <- tick:
		default:
		}
	}
	h.recorder.IncLiveReloadBroadcast()
}

// ClientCount returns the number of connected preview clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting clients and disconnects the existing ones.
func (h *LiveReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.done)
	}
}
