package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func readUpdate(t *testing.T, c *websocket.Conn) events.RaceUpdate {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var u events.RaceUpdate
	if err := c.ReadJSON(&u); err != nil {
		t.Fatalf("read: %v", err)
	}
	return u
}

func TestHubPresenceAndBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	a := dial(t, srv)
	if err := a.WriteJSON(ClientMsg{Type: "subscribe", RaceID: "r1"}); err != nil {
		t.Fatal(err)
	}
	if u := readUpdate(t, a); u.Type != events.RaceUpdatePresence || u.Viewers != 1 {
		t.Fatalf("first presence = %+v", u)
	}

	b := dial(t, srv)
	_ = b.WriteJSON(ClientMsg{Type: "subscribe", RaceID: "r1"})
	if u := readUpdate(t, a); u.Viewers != 2 {
		t.Fatalf("presence after join = %+v", u)
	}
	if u := readUpdate(t, b); u.Viewers != 2 {
		t.Fatalf("presence seen by b = %+v", u)
	}

	hub.Broadcast(events.RaceUpdate{Type: events.RaceUpdateStatus, RaceID: "r1", Status: "RUNNING"})
	hub.Broadcast(events.RaceUpdate{Type: events.RaceUpdateStatus, RaceID: "other", Status: "RUNNING"})
	if u := readUpdate(t, a); u.Status != "RUNNING" || u.RaceID != "r1" {
		t.Fatalf("status update = %+v", u)
	}

	_ = b.WriteJSON(ClientMsg{Type: "unsubscribe", RaceID: "r1"})
	if u := readUpdate(t, a); u.Type != events.RaceUpdatePresence || u.Viewers != 1 {
		t.Fatalf("presence after leave = %+v", u)
	}
}

func TestHubPing(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	_ = c.WriteJSON(ClientMsg{Type: "ping"})
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg["type"] != "pong" {
		t.Fatalf("got %v", msg)
	}
}

func TestLocalPresenceNeverNegative(t *testing.T) {
	p := NewLocalPresence()
	ctx := context.Background()
	if n, _ := p.Leave(ctx, "r"); n != 0 {
		t.Fatalf("leave on empty = %d", n)
	}
	p.Join(ctx, "r")
	p.Join(ctx, "r")
	if n, _ := p.Leave(ctx, "r"); n != 1 {
		t.Fatalf("after leave = %d", n)
	}
}
