package websocket

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(zap.NewNop())
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, c *Client) IndexEvent {
	t.Helper()
	select {
	case ev := <-c.Send:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return IndexEvent{}
	}
}

func TestPublishReachesSubscribersOnly(t *testing.T) {
	h := startHub(t)
	items := NewClient(h, nil, "item")
	blogs := NewClient(h, nil, "blog")
	all := NewClient(h, nil, AllIndices)
	for _, c := range []*Client{items, blogs, all} {
		if !h.Register(c) {
			t.Fatal("Register on a running hub = false")
		}
	}
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want 3", h.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}

	h.Publish("item", EventItemDeleted, map[string]string{"id": "1"})

	for _, c := range []*Client{items, all} {
		ev := receive(t, c)
		if ev.Type != EventItemDeleted || ev.Index != "item" || ev.Timestamp.IsZero() {
			t.Errorf("event = %+v", ev)
		}
	}

	// the blog client never saw the item event
	h.Publish("blog", EventItemSaved, nil)
	if ev := receive(t, blogs); ev.Index != "blog" {
		t.Errorf("blog client got %+v", ev)
	}
}

func TestSubscriptionChanges(t *testing.T) {
	c := NewClient(nil, nil)
	if c.IsSubscribed("item") {
		t.Fatal("new client without indices should not be subscribed")
	}

	c.handle(IndexEvent{Type: EventSubscribe, Index: " item "})
	if !c.IsSubscribed("item") {
		t.Error("SUBSCRIBE did not take")
	}
	c.handle(IndexEvent{Type: EventUnsubscribe, Index: "item"})
	if c.IsSubscribed("item") {
		t.Error("UNSUBSCRIBE did not take")
	}

	c.handle(IndexEvent{Type: EventSubscribe})
	if ev := <-c.Send; ev.Type != EventError {
		t.Errorf("empty subscribe = %+v, want ERROR", ev)
	}
	c.handle(IndexEvent{Type: "PING"})
	if ev := <-c.Send; ev.Type != EventError {
		t.Errorf("unknown type = %+v, want ERROR", ev)
	}
}

func waitDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("client was not released")
	}
}

func TestUnregisterReleasesClient(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, "item")
	h.Register(c)
	h.Unregister(c)

	waitDone(t, c)
	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d, want 0", n)
	}
	// unregistering twice is harmless
	h.Unregister(c)
}

func TestDroppedSlowConsumerCanStillBeAnswered(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, "item")
	h.Register(c)

	// nobody drains Send, so the hub drops the client once the buffer fills
	deadline := time.Now().Add(2 * time.Second)
	for dropped := false; !dropped; {
		select {
		case <-c.done:
			dropped = true
		default:
			if time.Now().After(deadline) {
				t.Fatal("slow consumer was never dropped")
			}
			h.Publish("item", EventItemSaved, nil)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("handle after drop panicked: %v", r)
		}
	}()
	c.handle(IndexEvent{Type: "BOGUS"})
	c.handle(IndexEvent{Type: EventSubscribe})
	h.Unregister(c)
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	live := NewClient(h, nil, "item")
	h.Register(live)
	cancel()
	<-stopped
	waitDone(t, live)

	returned := make(chan bool)
	go func() {
		h.Unregister(live)
		returned <- h.Register(NewClient(h, nil, "item"))
	}()
	select {
	case ok := <-returned:
		if ok {
			t.Error("Register on a stopped hub = true")
		}
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked on a stopped hub")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	// not running, so nothing drains the queue
	h := NewHub(zap.NewNop())
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.Publish("item", EventItemSaved, i)
	}
	if len(h.broadcast) != cap(h.broadcast) {
		t.Errorf("queued %d events, want %d", len(h.broadcast), cap(h.broadcast))
	}
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{AllIndices}},
		{" , ", []string{AllIndices}},
		{"item", []string{"item"}},
		{"item, blog", []string{"item", "blog"}},
	}
	for _, tt := range tests {
		got := parseIndices(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("parseIndices(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseIndices(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		}
	}
}

func TestHandleWebSocketRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	app.Get("/ws/events", NewWsHandler(NewHub(zap.NewNop()), zap.NewNop()).HandleWebSocket)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/events", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}
