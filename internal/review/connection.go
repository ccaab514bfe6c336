package review

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
)

// reviewer is one admin's websocket. Frames are written under mu because
// broadcasts, heartbeats and replies come from different goroutines.
type reviewer struct {
	id     string
	conn   net.Conn
	joined time.Time

	lastSeen     atomic.Int64 // unix nanos
	mu           sync.Mutex
	writeTimeout time.Duration
}

func newReviewer(id string, conn net.Conn, now time.Time, writeTimeout time.Duration) *reviewer {
	r := &reviewer{id: id, conn: conn, joined: now, writeTimeout: writeTimeout}
	r.touch(now)
	return r
}

func (r *reviewer) touch(now time.Time) { r.lastSeen.Store(now.UnixNano()) }

func (r *reviewer) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, r.lastSeen.Load()))
}

func (r *reviewer) send(data []byte) error { return r.frame(ws.NewTextFrame(data)) }
func (r *reviewer) ping() error            { return r.frame(ws.NewPingFrame(nil)) }
func (r *reviewer) pong(p []byte) error    { return r.frame(ws.NewPongFrame(p)) }

func (r *reviewer) frame(f ws.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeTimeout > 0 {
		_ = r.conn.SetWriteDeadline(time.Now().Add(r.writeTimeout))
	}
	return ws.WriteFrame(r.conn, f)
}

// roster tracks connected reviewers up to a fixed capacity.
type roster struct {
	mu    sync.RWMutex
	limit int
	byID  map[string]*reviewer
}

func newRoster(limit int) *roster {
	return &roster{limit: limit, byID: make(map[string]*reviewer)}
}

// join adds r unless the roster is full.
func (ro *roster) join(r *reviewer) bool {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	if ro.limit > 0 && len(ro.byID) >= ro.limit {
		return false
	}
	ro.byID[r.id] = r
	return true
}

// leave removes and closes the reviewer, reporting false if it was already
// gone.
func (ro *roster) leave(id string) bool {
	ro.mu.Lock()
	r, ok := ro.byID[id]
	delete(ro.byID, id)
	ro.mu.Unlock()

	if ok {
		r.conn.Close()
	}
	return ok
}

func (ro *roster) size() int {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return len(ro.byID)
}

func (ro *roster) full() bool {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.limit > 0 && len(ro.byID) >= ro.limit
}

func (ro *roster) snapshot() []*reviewer {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	out := make([]*reviewer, 0, len(ro.byID))
	for _, r := range ro.byID {
		out = append(out, r)
	}
	return out
}
