// Package messaging is the NATS bus shared by the API server and the
// moderator service: request/reply for remote moderation and fire-and-forget
// events for held posts and finished games.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects used across forum services.
const (
	SubjectModerationCheck = "moderation.check"
	SubjectModerationHeld  = "moderation.held"
	SubjectWordleCompleted = "wordle.completed"

	// QueueModerators load-balances moderation.check across moderator replicas.
	QueueModerators = "moderators"
)

// DefaultRequestTimeout bounds Request when ctx carries no deadline.
const DefaultRequestTimeout = 15 * time.Second

// errorHeader carries a responder's failure back to the requester.
const errorHeader = "Forum-Error"

// ErrRemote is wrapped by Request when the responder reported a failure.
var ErrRemote = errors.New("messaging: remote handler failed")

// Options configure the NATS connection.
type Options struct {
	URL           string
	Name          string // client name shown in NATS monitoring
	ReconnectWait time.Duration
	MaxReconnects int // -1 retries forever
}

// DefaultOptions targets a local server and reconnects forever.
func DefaultOptions(name string) Options {
	return Options{
		URL:           nats.DefaultURL,
		Name:          name,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// Bus owns one NATS connection and the subscriptions made through it.
type Bus struct {
	nc  *nats.Conn
	log *zap.SugaredLogger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Connect dials NATS. It fails if the first connection attempt fails;
// later disconnects are retried per opts.
func Connect(opts Options, log *zap.SugaredLogger) (*Bus, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	nc, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnw("[nats] disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infow("[nats] reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("[nats] connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: connect %s: %w", opts.URL, err)
	}
	log.Infow("[nats] connected", "url", nc.ConnectedUrl(), "name", opts.Name)
	return &Bus{nc: nc, log: log, subs: make(map[string]*nats.Subscription)}, nil
}

// Publish sends data on subject without waiting for anyone.
func (b *Bus) Publish(subject string, data []byte) error {
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("messaging: publish %s: %w", subject, err)
	}
	return nil
}

// Request sends data on subject and waits for one reply. A responder that
// fails answers with ErrRemote instead of letting the request time out.
func (b *Bus) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}
	msg, err := b.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("messaging: request %s: %w", subject, err)
	}
	if reason := msg.Header.Get(errorHeader); reason != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrRemote, subject, reason)
	}
	return msg.Data, nil
}

// Subscribe delivers every message on subject to fn. Subscribing to the same
// subject again replaces the earlier handler.
func (b *Bus) Subscribe(subject string, fn func(data []byte)) error {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		defer b.rescue(subject)
		fn(m.Data)
	})
	if err != nil {
		return fmt.Errorf("messaging: subscribe %s: %w", subject, err)
	}
	b.keep(subject, sub)
	return nil
}

// HandleRequests answers requests on subject as a member of queue, so each
// request reaches one replica.
func (b *Bus) HandleRequests(subject, queue string, fn func(data []byte) ([]byte, error)) error {
	sub, err := b.nc.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		defer b.rescue(subject)
		reply, err := fn(m.Data)
		if m.Reply == "" {
			return
		}
		out := nats.NewMsg(m.Reply)
		if err != nil {
			b.log.Warnw("[nats] request handler failed", "subject", subject, "error", err)
			out.Header.Set(errorHeader, err.Error())
		} else {
			out.Data = reply
		}
		if err := m.RespondMsg(out); err != nil {
			b.log.Warnw("[nats] respond failed", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: queue subscribe %s/%s: %w", subject, queue, err)
	}
	b.keep(subject+"@"+queue, sub)
	return nil
}

// Unsubscribe drops the plain subscription on subject.
func (b *Bus) Unsubscribe(subject string) error {
	b.mu.Lock()
	sub, ok := b.subs[subject]
	delete(b.subs, subject)
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("messaging: not subscribed to %s", subject)
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("messaging: unsubscribe %s: %w", subject, err)
	}
	return nil
}

// Close drains in-flight messages and closes the connection.
func (b *Bus) Close() {
	b.mu.Lock()
	b.subs = make(map[string]*nats.Subscription)
	b.mu.Unlock()

	// Draining the connection drains every subscription on it.
	if err := b.nc.Drain(); err != nil {
		b.log.Warnw("[nats] drain failed", "error", err)
		b.nc.Close()
	}
}

func (b *Bus) keep(key string, sub *nats.Subscription) {
	b.mu.Lock()
	old := b.subs[key]
	b.subs[key] = sub
	b.mu.Unlock()

	if old != nil {
		_ = old.Unsubscribe()
	}
}

func (b *Bus) rescue(subject string) {
	if r := recover(); r != nil {
		b.log.Errorw("[nats] handler panic", "subject", subject, "panic", r)
	}
}
