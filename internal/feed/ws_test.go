package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestBarStream_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Keep connection open
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	s, err := NewBarStream(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewBarStream: %v", err)
	}
	defer s.Close()

	if s.closed.Load() {
		t.Error("stream should not be closed")
	}
}

func TestBarStream_RedialClosesPreviousConn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	s, err := NewBarStream(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewBarStream: %v", err)
	}
	defer s.Close()

	old := s.conn
	if err := s.connect(context.Background()); err != nil {
		t.Fatalf("redial: %v", err)
	}
	if s.conn == old {
		t.Fatal("redial must swap in a new connection")
	}
	// The replaced connection must be closed, not leaked.
	if err := old.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err == nil {
		t.Error("previous connection still writable after redial")
	}
}

func TestBarStream_DeliversBars(t *testing.T) {
	messages := []string{
		`{"ts":1769527740000,"open":5010,"high":5015,"low":5008,"close":5012,"volume":120,"symbol":"ESH6"}`,
		`{"ts":1769527800000,"open":5012,"high":5012,"low":5012,"close":5012,"volume":0,"symbol":"ESH6"}`, // degenerate
		`{"ts":1769527860000,"open":5012,"high":5018,"low":5011,"close":5016,"volume":90,"symbol":"ESH6"}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Keep connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := NewBarStream(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewBarStream: %v", err)
	}
	defer s.Close()

	bars, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	var got []int64
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case b, ok := <-bars:
			if !ok {
				t.Fatalf("stream closed early, got %v", got)
			}
			got = append(got, b.TimestampMs)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}

	if got[0] != 1769527740000 || got[1] != 1769527860000 {
		t.Errorf("bars = %v, want the degenerate print filtered", got)
	}
}
