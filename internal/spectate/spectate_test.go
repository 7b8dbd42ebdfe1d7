package spectate

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"netpong/internal/pong"
)

func dialViewer(t *testing.T, srv *httptest.Server, h *Hub) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Viewers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ws
}

func TestPublishReachesViewer(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	ws := dialViewer(t, srv, h)
	defer ws.Close()

	g := pong.NewGameState(pong.DefaultArena())
	g.Score = pong.Score{Left: 3, Right: 1}
	g.Launch()
	g.Step()
	h.Publish(g.Snapshot())

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Type  string      `json:"type"`
		Match string      `json:"match"`
		Tick  uint64      `json:"tick"`
		Phase string      `json:"phase"`
		Score pong.Score  `json:"score"`
		Ball  pong.Vector `json:"ball"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "state" || got.Match != g.MatchID.String() || got.Tick != 1 || got.Phase != "serving" {
		t.Fatalf("message = %s", msg)
	}
	if got.Score != g.Score || got.Ball != g.Ball.Center {
		t.Fatalf("message = %s", msg)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	ws := dialViewer(t, srv, h)
	defer ws.Close()

	// The viewer never reads, so its queue fills and snapshots are dropped.
	s := pong.NewGameState(pong.DefaultArena()).Snapshot()
	done := make(chan struct{})
	go func() {
		for range 10 * sendQueue {
			h.Publish(s)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow viewer")
	}
}

func TestViewerRemovedOnDisconnect(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	ws := dialViewer(t, srv, h)
	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Viewers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	h := NewHub()
	h.AddMetrics("sync", func() map[string]any { return map[string]any{"frames_sent": 7} })
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	var stats map[string]float64
	if err := json.Unmarshal(raw["sync"], &stats); err != nil {
		t.Fatal(err)
	}
	if stats["frames_sent"] != 7 {
		t.Fatalf("metrics = %v", stats)
	}
	if string(raw["viewers"]) != "0" {
		t.Fatalf("viewers = %s", raw["viewers"])
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", health.StatusCode)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- Serve(ctx, addr, NewHub()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
