// Package review pushes posts held by moderation to connected admin
// reviewers over websockets.
package review

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/forum"
)

// Config holds tunable parameters for the review feed.
type Config struct {
	MaxConnections int
	PingInterval   time.Duration // how often reviewers are pinged
	PongTimeout    time.Duration // grace after a ping before a silent reviewer is dropped
	WriteTimeout   time.Duration
	MaxFrameSize   int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConnections: 200,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxFrameSize:   4096,
	}
}

// Hub accepts reviewer connections and broadcasts moderation events to them.
type Hub struct {
	cfg   Config
	conns *roster
	log   *zap.SugaredLogger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ forum.Notifier = (*Hub)(nil)

// NewHub creates a Hub. Call Start to begin heartbeats.
func NewHub(cfg Config, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		cfg:   cfg,
		conns: newRoster(cfg.MaxConnections),
		log:   log,
		done:  make(chan struct{}),
	}
}

// Count returns the number of connected reviewers.
func (h *Hub) Count() int { return h.conns.size() }

// ServeHTTP upgrades the request and registers the reviewer. Authorization
// is the caller's job.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.conns.full() {
		http.Error(w, "too many reviewers", http.StatusServiceUnavailable)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.log.Warnw("[review] upgrade failed", "error", err)
		return
	}

	c := newReviewer(uuid.NewString(), conn, time.Now(), h.cfg.WriteTimeout)
	if !h.conns.join(c) {
		// Lost a race for the last slot.
		if msg, err := NewServerMessage(TypeError, ErrorMsg{Message: "too many reviewers"}); err == nil {
			_ = c.send(msg)
		}
		conn.Close()
		return
	}

	msg, err := NewServerMessage(TypeConnected, ConnectedMsg{ConnectionID: c.id, Reviewers: h.conns.size()})
	if err == nil {
		err = c.send(msg)
	}
	if err != nil {
		h.log.Warnw("[review] send connected failed", "conn", c.id, "error", err)
		h.remove(c)
		return
	}

	h.log.Infow("[review] reviewer connected", "conn", c.id, "total", h.conns.size())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.readLoop(c)
	}()
}

// readLoop reads frames until the reviewer goes away. Any frame counts as
// liveness for the heartbeat.
func (h *Hub) readLoop(c *reviewer) {
	defer h.remove(c)

	for {
		if d := h.cfg.PingInterval + h.cfg.PongTimeout; d > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(d))
		}

		header, reader, err := wsutil.NextReader(c.conn, ws.StateServerSide)
		if err != nil {
			var netErr net.Error
			if !errors.Is(err, io.EOF) && !(errors.As(err, &netErr) && netErr.Timeout()) {
				h.log.Debugw("[review] read failed", "conn", c.id, "error", err)
			}
			return
		}
		c.touch(time.Now())

		if header.Length > h.cfg.MaxFrameSize {
			h.log.Warnw("[review] frame too large", "conn", c.id, "length", header.Length)
			return
		}

		data := make([]byte, header.Length)
		if header.Length > 0 {
			if _, err := io.ReadFull(reader, data); err != nil {
				return
			}
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPing:
			if err := c.pong(data); err != nil {
				return
			}
			continue
		case ws.OpPong, ws.OpContinuation:
			continue
		}

		h.handleMessage(c, data)
	}
}

func (h *Hub) handleMessage(c *reviewer, data []byte) {
	var (
		reply []byte
		err   error
	)
	switch typ, perr := parseType(data); {
	case perr != nil:
		reply, err = NewServerMessage(TypeError, ErrorMsg{Message: perr.Error()})
	case typ == TypePing:
		reply, err = NewServerMessage(TypePong, nil)
	default:
		reply, err = NewServerMessage(TypeError, ErrorMsg{Message: "unknown message type " + typ})
	}
	if err == nil {
		err = c.send(reply)
	}
	if err != nil {
		h.log.Warnw("[review] reply failed", "conn", c.id, "error", err)
	}
}

func (h *Hub) remove(c *reviewer) {
	if h.conns.leave(c.id) {
		h.log.Infow("[review] reviewer disconnected", "conn", c.id, "total", h.conns.size())
	}
}

// Broadcast sends data to every reviewer. Reviewers whose write fails are
// dropped.
func (h *Hub) Broadcast(data []byte) {
	for _, c := range h.conns.snapshot() {
		if err := c.send(data); err != nil {
			h.log.Warnw("[review] broadcast write failed", "conn", c.id, "error", err)
			h.remove(c)
		}
	}
}

// NotifyHeld implements forum.Notifier.
func (h *Hub) NotifyHeld(_ context.Context, r *forum.Record) error {
	msg, err := NewServerMessage(TypePostHeld, r)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// NotifyDecided tells reviewers that a held record was settled.
func (h *Hub) NotifyDecided(r *forum.Record) error {
	msg, err := NewServerMessage(TypePostDecided, r)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// Close stops the heartbeat and disconnects every reviewer.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		for _, c := range h.conns.snapshot() {
			h.conns.leave(c.id)
		}
		h.wg.Wait()
		h.log.Info("[review] hub closed")
	})
}
