// Package spectate serves the running game to read-only websocket viewers.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netpong/internal/pong"
)

const (
	sendQueue    = 16
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

type viewer struct {
	ws   *websocket.Conn
	send chan []byte
}

// writePump drains the viewer's queue onto the websocket.
func (v *viewer) writePump() {
	defer v.ws.Close()
	for msg := range v.send {
		v.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	v.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"),
		time.Now().Add(time.Second))
}

// Hub fans snapshots out to viewers and exposes metrics over HTTP.
type Hub struct {
	mu      sync.Mutex
	viewers map[*viewer]struct{}
	sources map[string]func() map[string]any

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		viewers: make(map[*viewer]struct{}),
		sources: make(map[string]func() map[string]any),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers only ever receive data.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AddMetrics registers a named metrics source for /metrics.
func (h *Hub) AddMetrics(name string, src func() map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sources[name] = src
}

func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

type stateMessage struct {
	Type string `json:"type"`
	pong.Snapshot
}

// Publish queues a snapshot for every viewer. It never blocks: a viewer whose
// queue is full misses this snapshot.
func (h *Hub) Publish(s pong.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.viewers) == 0 {
		return
	}

	b, err := json.Marshal(stateMessage{Type: "state", Snapshot: s})
	if err != nil {
		slog.Debug("error marshalling snapshot", slog.Any("error", err))
		return
	}
	for v := range h.viewers {
		select {
		case v.send <- b:
		default:
		}
	}
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// CloseAll disconnects every viewer.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	v := &viewer{ws: ws, send: make(chan []byte, sendQueue)}
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()
	slog.Info("spectator joined", slog.String("addr", r.RemoteAddr))

	go v.writePump()
	go h.readPump(v)
}

// readPump discards anything a viewer sends and removes it once the
// connection fails.
func (h *Hub) readPump(v *viewer) {
	defer h.remove(v)
	v.ws.SetReadLimit(512)
	v.ws.SetReadDeadline(time.Now().Add(readTimeout))
	v.ws.SetPongHandler(func(string) error {
		v.ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		if _, _, err := v.ws.ReadMessage(); err != nil {
			slog.Debug("spectator left", slog.Any("error", err))
			return
		}
	}
}

func (h *Hub) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sources := make(map[string]func() map[string]any, len(h.sources))
	for name, src := range h.sources {
		sources[name] = src
	}
	viewers := len(h.viewers)
	h.mu.Unlock()

	sort.Strings(names)
	payload := map[string]any{"viewers": viewers}
	for _, name := range names {
		payload[name] = sources[name]()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/metrics", h.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the spectator HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		slog.Info("spectator feed listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	h.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
