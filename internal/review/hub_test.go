package review

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/forum"
	"github.com/campusnest/forum/internal/moderation"
)

type client struct {
	conn net.Conn
	rw   io.ReadWriter
}

func dial(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var rw io.ReadWriter = conn
	if br != nil {
		rw = struct {
			*bufio.Reader
			io.Writer
		}{br, conn}
	}
	return &client{conn: conn, rw: rw}
}

func (c *client) read(t *testing.T) map[string]any {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	data, _, err := wsutil.ReadServerData(c.rw)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

func (c *client) send(t *testing.T, s string) {
	t.Helper()
	if err := wsutil.WriteClientMessage(c.conn, ws.OpText, []byte(s)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(DefaultConfig(), nil)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func TestHub_ConnectAndPing(t *testing.T) {
	_, srv := newTestHub(t)
	c := dial(t, srv)

	if m := c.read(t); m["type"] != TypeConnected || m["reviewers"] != float64(1) {
		t.Fatalf("first message = %v", m)
	}

	c.send(t, `{"type":"ping"}`)
	if m := c.read(t); m["type"] != TypePong {
		t.Errorf("reply = %v, want pong", m)
	}

	c.send(t, `not json`)
	if m := c.read(t); m["type"] != TypeError {
		t.Errorf("reply = %v, want error", m)
	}

	c.send(t, `{"type":"approve"}`)
	if m := c.read(t); m["type"] != TypeError {
		t.Errorf("reply = %v, want error", m)
	}
}

func TestHub_BroadcastHeld(t *testing.T) {
	h, srv := newTestHub(t)
	a, b := dial(t, srv), dial(t, srv)
	a.read(t)
	b.read(t)

	rec := &forum.Record{
		ID:       uuid.New(),
		Category: forum.CategoryRants,
		Status:   forum.StatusPendingReview,
		Verdict:  moderation.Verdict{IsUnsafe: true, Confidence: 0.7, Source: moderation.SourceLocal},
	}
	if err := h.NotifyHeld(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*client{a, b} {
		m := c.read(t)
		if m["type"] != TypePostHeld || m["id"] != rec.ID.String() || m["status"] != "PENDING_REVIEW" {
			t.Errorf("broadcast = %v", m)
		}
	}

	rec.Status = forum.StatusRejected
	if err := h.NotifyDecided(rec); err != nil {
		t.Fatal(err)
	}
	if m := a.read(t); m["type"] != TypePostDecided || m["status"] != "REJECTED" {
		t.Errorf("decided = %v", m)
	}
}

func TestHub_DisconnectRemoves(t *testing.T) {
	h, srv := newTestHub(t)
	c := dial(t, srv)
	c.read(t)

	c.conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Count() != 0 {
		t.Errorf("Count = %d after disconnect, want 0", h.Count())
	}
}

func TestHub_HeartbeatDropsSilent(t *testing.T) {
	h, srv := newTestHub(t)
	c := dial(t, srv)
	c.read(t)

	h.checkConnections(time.Now().Add(time.Hour))
	if h.Count() != 0 {
		t.Errorf("Count = %d, silent reviewer should be dropped", h.Count())
	}
}

func TestHub_MaxConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	h := NewHub(cfg, nil)
	srv := httptest.NewServer(h)
	defer func() { h.Close(); srv.Close() }()

	c := dial(t, srv)
	c.read(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if _, _, _, err := ws.Dial(context.Background(), url); err == nil {
		t.Error("second reviewer should be refused")
	}
}

func TestNewServerMessage(t *testing.T) {
	out, err := NewServerMessage(TypePong, nil)
	if err != nil || string(out) != `{"type":"pong"}` {
		t.Errorf("NewServerMessage = %s, %v", out, err)
	}
	if _, err := NewServerMessage(TypeError, []string{"x"}); err == nil {
		t.Error("non-object payload should fail")
	}
}
