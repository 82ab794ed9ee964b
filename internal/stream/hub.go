// Package stream publishes simulator frames over websockets and feeds
// touches from connected clients back into the grid.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/touch"
)

// FrameMessage is what every client receives after each published frame.
type FrameMessage struct {
	Type      string       `json:"type"`
	Step      int          `json:"step"`
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
}

// TouchMessage is a press sent by a client.
type TouchMessage struct {
	Node     int        `json:"node"`
	Pressure [3]float64 `json:"pressure"`
}

// defaultWriteWait bounds how long one client may hold up a broadcast.
const defaultWriteWait = time.Second

type Hub struct {
	upgrader  websocket.Upgrader
	queue     *touch.Queue
	logger    *slog.Logger
	writeWait time.Duration

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	// msg is reused across broadcasts; only OnFrame touches it.
	msg FrameMessage
}

func NewHub(queue *touch.Queue, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queue:     queue,
		logger:    logger,
		writeWait: defaultWriteWait,
		clients:   make(map[*websocket.Conn]*sync.Mutex),
		msg:       FrameMessage{Type: "frame"},
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and reads touches until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		h.logger.Info("client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		var msg TouchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", "err", err)
			}
			return
		}
		h.queue.Push(touch.Event{
			Node:     msg.Node,
			Pressure: r3.Vec{X: msg.Pressure[0], Y: msg.Pressure[1], Z: msg.Pressure[2]},
		})
	}
}

// OnFrame broadcasts the frame to every client, dropping those that fail
// or cannot take the frame within the write deadline.
func (h *Hub) OnFrame(f dynamo.Frame) {
	// JSON has no NaN or Inf
	if !dynamo.IsValid(f.Positions) {
		return
	}

	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}

	h.msg.Step = f.Step
	h.msg.Time = f.Time
	if cap(h.msg.Positions) < len(f.Positions) {
		h.msg.Positions = make([][3]float64, len(f.Positions))
	}
	h.msg.Positions = h.msg.Positions[:len(f.Positions)]
	for i, p := range f.Positions {
		h.msg.Positions[i] = [3]float64{p.X, p.Y, p.Z}
	}

	failed := []*websocket.Conn{}
	for client, mutex := range h.clients {
		mutex.Lock()
		err := client.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err == nil {
			err = client.WriteJSON(&h.msg)
		}
		mutex.Unlock()
		if err != nil {
			h.logger.Warn("websocket write failed", "err", err)
			client.Close()
			failed = append(failed, client)
		}
	}
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.mu.Lock()
		for _, client := range failed {
			delete(h.clients, client)
		}
		h.mu.Unlock()
	}
}

// Serve runs an HTTP server exposing the hub at /ws until ctx is done.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.logger.Info("stream listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
