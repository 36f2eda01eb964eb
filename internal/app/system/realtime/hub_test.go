package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *realtime.Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := realtime.NewHub(zap.NewNop())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h
}

func receive(t *testing.T, c *realtime.Client) realtime.Payload {
	t.Helper()
	select {
	case data, ok := <-c.Messages():
		if !ok {
			t.Fatal("channel closed")
		}
		var p realtime.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return realtime.Payload{}
}

func TestHub_PushRoutesByRecipient(t *testing.T) {
	h := startHub(t)

	alice1 := realtime.NewClient("alice")
	alice2 := realtime.NewClient("alice")
	bob := realtime.NewClient("bob")
	for _, c := range []*realtime.Client{alice1, alice2, bob} {
		if !h.Register(c) {
			t.Fatal("Register returned false")
		}
	}

	h.Push(realtime.Payload{Title: "Task assigned", Message: "hello", RecipientID: "alice"})

	for _, c := range []*realtime.Client{alice1, alice2} {
		if p := receive(t, c); p.Title != "Task assigned" {
			t.Errorf("Title: got %q, want %q", p.Title, "Task assigned")
		}
	}

	select {
	case <-bob.Messages():
		t.Error("bob should not receive alice's payload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PushOnlyReachesClientsRegisteredBefore(t *testing.T) {
	h := startHub(t)
	for i := 0; i < 100; i++ {
		h.Push(realtime.Payload{Title: "early", RecipientID: "dana"})
	}

	c := realtime.NewClient("dana")
	if !h.Register(c) {
		t.Fatal("Register returned false")
	}
	if n := len(c.Messages()); n != 0 {
		t.Fatalf("buffered after register: got %d, want 0", n)
	}

	h.Push(realtime.Payload{Title: "late", RecipientID: "dana"})
	if n := len(c.Messages()); n != 1 {
		t.Fatalf("buffered after push: got %d, want 1", n)
	}
	if p := receive(t, c); p.Title != "late" {
		t.Errorf("Title: got %q, want late", p.Title)
	}
}

func TestHub_RegisterAfterStopFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := realtime.NewHub(zap.NewNop())
	go h.Run(ctx)

	c := realtime.NewClient("erin")
	h.Register(c)
	cancel()
	<-h.Done()

	if _, ok := <-c.Messages(); ok {
		t.Error("client channel still open after stop")
	}
	if h.Register(realtime.NewClient("erin")) {
		t.Error("Register succeeded on a stopped hub")
	}
	h.Unregister(c)
	h.Push(realtime.Payload{RecipientID: "erin"})
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	h := startHub(t)
	c := realtime.NewClient("alice")
	h.Register(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Messages():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
	if n := h.Connected("alice"); n != 0 {
		t.Errorf("Connected: got %d, want 0", n)
	}
}

func TestHub_NilPushIsNoop(t *testing.T) {
	var h *realtime.Hub
	h.Push(realtime.Payload{RecipientID: "x"})
}

func TestHub_ServeOverWebsocket(t *testing.T) {
	h := startHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn, "carol")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Connected("carol") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Push(realtime.Payload{Title: "Status changed", Message: "done", RecipientID: "carol"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var p realtime.Payload
	if err := conn.ReadJSON(&p); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if p.Message != "done" || p.RecipientID != "carol" {
		t.Errorf("payload: got %+v", p)
	}
}
