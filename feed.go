package volt

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const feedWriteWait = 5 * time.Second

// feedMessage is the wire format of one replication frame.
type feedMessage struct {
	Type    string           `json:"type"`
	Tick    uint64           `json:"tick"`
	Devices []DeviceSnapshot `json:"devices"`
}

type feedSubscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Feed broadcasts per-tick device snapshots to websocket subscribers.
// Register it as a global injection and drive it with FeedSystem:
//
//	feed := volt.NewFeed()
//	http.Handle("/feed", feed)
//
//	volt.NewBuilder().
//	    Injection(feed).
//	    Bundle(volt.NewBundle("power").
//	        GlobalLoop(&volt.FeedSystem{}, 100*time.Millisecond, volt.After).
//	        Build()).
//	    Init()
type Feed struct {
	mu          sync.Mutex
	subscribers map[*feedSubscriber]struct{}
	upgrader    websocket.Upgrader
	log         *slog.Logger
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[*feedSubscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: slog.Default(),
	}
}

// SubscriberCount returns the number of connected subscribers.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// ServeHTTP upgrades the request to a websocket and registers the
// connection as a snapshot subscriber. The read loop only drains
// control frames; the feed is one-way.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Error("feed: upgrade failed", "err", err)
		return
	}

	sub := &feedSubscriber{conn: conn}

	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer f.drop(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// drop unregisters and closes a subscriber.
func (f *Feed) drop(sub *feedSubscriber) {
	f.mu.Lock()
	_, ok := f.subscribers[sub]
	delete(f.subscribers, sub)
	f.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}

// Broadcast sends one snapshot frame to every subscriber. Subscribers
// whose writes fail are dropped.
func (f *Feed) Broadcast(tick uint64, devices []DeviceSnapshot) {
	msg := feedMessage{Type: "devices", Tick: tick, Devices: devices}
	data, err := json.Marshal(msg)
	if err != nil {
		f.log.Error("feed: marshal snapshot", "err", err)
		return
	}

	f.mu.Lock()
	subs := make([]*feedSubscriber, 0, len(f.subscribers))
	for sub := range f.subscribers {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			f.log.Warn("feed: dropping subscriber", "err", err)
			f.drop(sub)
		}
	}
}

// FeedSystem collects device snapshots once per interval and pushes
// them to the feed. Register it as a GlobalLoop in the After stage so
// snapshots reflect the tick's power draws.
type FeedSystem struct {
	World *World
	Feed  *Feed `volt:"inj"`
}

// Run broadcasts the current device snapshots.
func (s *FeedSystem) Run() {
	s.Feed.Broadcast(s.World.TickNumber(), CollectSnapshots(s.World))
}
