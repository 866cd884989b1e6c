// Package telemetry streams world snapshots and body events to websocket
// clients as JSON.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Versifine/kinematic/internal/event"
	"github.com/Versifine/kinematic/internal/world"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 2 * time.Second
	sendBufferSize = 32
	shutdownWait   = 3 * time.Second
)

type Message struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Data  any    `json:"data"`
	Frame uint64 `json:"frame"`
}

const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client. Slow clients drop
// frames instead of blocking the simulation.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   []byte
	frame    uint64
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log.With("component", "telemetry"),
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishSnapshot sends a snapshot frame and remembers it for new clients.
func (h *Hub) PublishSnapshot(snap world.Snapshot) {
	if err := h.broadcast(TypeSnapshot, "", snap, true); err != nil {
		h.log.Debug("snapshot dropped", "error", err)
	}
}

// PublishEvent sends a body event frame.
func (h *Hub) PublishEvent(name string, evt any) {
	if err := h.broadcast(TypeEvent, name, evt, false); err != nil {
		h.log.Debug("event dropped", "event", name, "error", err)
	}
}

// Forward subscribes the hub to the body events on bus.
func (h *Hub) Forward(bus *event.Bus) {
	for _, name := range []string{event.EventJumped, event.EventLanded, event.EventPushed} {
		name := name
		bus.Subscribe(name, func(raw any) { h.PublishEvent(name, raw) })
	}
}

func (h *Hub) broadcast(kind, name string, payload any, keep bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame++
	data, err := json.Marshal(Message{Type: kind, Name: name, Data: payload, Frame: h.frame})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if keep {
		h.latest = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Debug("client too slow, frame dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
	return nil
}

// ServeHTTP upgrades the request and streams frames until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.log.Info("client disconnected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("write failed", "error", err)
			_ = c.conn.Close()
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) latestHandler(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	data := h.latest
	h.mu.Unlock()
	if data == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Handler routes /ws to the stream and /snapshot to the latest frame.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/snapshot", h.latestHandler)
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		h.log.Info("telemetry listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("telemetry listen: %w", err)
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}
