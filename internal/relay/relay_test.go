package relay

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
)

func newTestHub(t *testing.T) (*Hub, cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient: %v", err)
	}
	hub, err := NewHub(c, "submission_updates")
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	return hub, c
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for hub.ClientCount() != n {
		select {
		case <-deadline:
			t.Fatalf("client count never reached %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubForwardsEventsVerbatim(t *testing.T) {
	hub, c := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv.URL)
	waitForClients(t, hub, 1)

	payload := `{"id":"s1","questionId":"q1","status":"ACCEPTED","type":"SUBMISSION_UPDATE"}`
	if err := c.Publish(ctx, "submission_updates", payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != payload {
		t.Fatalf("relayed %q, want %q", msg, payload)
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, c := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dialHub(t, srv.URL)
	second := dialHub(t, srv.URL)
	waitForClients(t, hub, 2)

	if err := c.Publish(ctx, "submission_updates", "event"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d: ReadMessage: %v", i, err)
		}
		if string(msg) != "event" {
			t.Fatalf("client %d got %q", i, msg)
		}
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv.URL)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}
