package stream

import (
	"io"
	"log/slog"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/touch"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return h.Clients() == 1 })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newHub() (*Hub, *touch.Queue) {
	q := touch.NewQueue()
	return NewHub(q, slog.New(slog.NewTextHandler(io.Discard, nil))), q
}

func TestHubQueuesInboundTouches(t *testing.T) {
	h, q := newHub()
	conn := dial(t, h)

	if err := conn.WriteJSON(TouchMessage{Node: 21, Pressure: [3]float64{0, 0, 1}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, func() bool { return q.Len() == 1 })
	events := q.Drain()
	if events[0].Node != 21 || events[0].Pressure != (r3.Vec{Z: 1}) {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestHubBroadcastsFrames(t *testing.T) {
	h, _ := newHub()
	conn := dial(t, h)

	h.OnFrame(dynamo.Frame{Step: 7, Time: 0.112, Positions: []r3.Vec{{X: 1, Y: 2, Z: 3}}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FrameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "frame" || msg.Step != 7 || len(msg.Positions) != 1 || msg.Positions[0][2] != 3 {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	h, _ := newHub()
	conn := dial(t, h)

	conn.Close()
	waitFor(t, func() bool { return h.Clients() == 0 })

	h.OnFrame(dynamo.Frame{Step: 1, Positions: []r3.Vec{{}}})
}

func TestHubDropsStalledClient(t *testing.T) {
	h, _ := newHub()
	h.writeWait = 100 * time.Millisecond
	dial(t, h) // never reads

	// far more than the loopback socket buffers can absorb
	big := make([]r3.Vec, 1_000_000)
	for i := range big {
		big[i] = r3.Vec{X: 1.2345678901234, Y: 2.3456789012345, Z: 3.4567890123456}
	}

	start := time.Now()
	h.OnFrame(dynamo.Frame{Step: 1, Positions: big})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("broadcast blocked for %v", elapsed)
	}
	waitFor(t, func() bool { return h.Clients() == 0 })
}

func TestHubSkipsNonFiniteFrames(t *testing.T) {
	h, _ := newHub()
	conn := dial(t, h)

	h.OnFrame(dynamo.Frame{Step: 1, Positions: []r3.Vec{{X: math.NaN()}}})
	h.OnFrame(dynamo.Frame{Step: 2, Positions: []r3.Vec{{X: 1}}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FrameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Step != 2 {
		t.Errorf("expected the finite frame, got step %d", msg.Step)
	}
	if h.Clients() != 1 {
		t.Error("client should stay connected")
	}
}
