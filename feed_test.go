package volt

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

func dialFeed(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, feed *Feed, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for feed.SubscriberCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count = %d, want %d", feed.SubscriberCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFeedBroadcastsSnapshots(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv)
	waitForSubscribers(t, feed, 1)

	charge := 25.0
	capacity := 100.0
	feed.Broadcast(7, []DeviceSnapshot{{
		DeviceID:      "d1",
		HasStore:      true,
		SlotSize:      SizeSmall.String(),
		CurrentCharge: &charge,
		MaxCharge:     &capacity,
		Discharging:   true,
	}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "devices" || msg.Tick != 7 {
		t.Errorf("frame header = %q/%d, want devices/7", msg.Type, msg.Tick)
	}
	if len(msg.Devices) != 1 {
		t.Fatalf("frame holds %d devices, want 1", len(msg.Devices))
	}
	snap := msg.Devices[0]
	if snap.DeviceID != "d1" || !snap.HasStore || !snap.Discharging {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.CurrentCharge == nil || *snap.CurrentCharge != 25 {
		t.Errorf("current charge = %v, want 25", snap.CurrentCharge)
	}
}

func TestFeedDropsClosedSubscribers(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv)
	waitForSubscribers(t, feed, 1)

	conn.Close()
	waitForSubscribers(t, feed, 0)
}

func TestFeedSystemBroadcastsDeviceState(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	w := NewBuilder().
		TickRate(0).
		Injection(feed).
		Bundle(NewBundle("power").
			GlobalLoop(&FeedSystem{}, 0, After).
			Build()).
		Init()
	t.Cleanup(w.Shutdown)

	if _, err := w.Spawn("handheld_light", mgl64.Vec3{}); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	conn := dialFeed(t, srv)
	waitForSubscribers(t, feed, 1)

	w.Advance(50 * time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(msg.Devices) != 1 {
		t.Fatalf("frame holds %d devices, want 1", len(msg.Devices))
	}
	if !msg.Devices[0].HasStore {
		t.Error("seeded device snapshot reports no store")
	}
}
