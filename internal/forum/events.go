package forum

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher sends an encoded event on a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// HeldEvent announces a post waiting for review.
type HeldEvent struct {
	Record *Record `json:"record"`
	Ts     int64   `json:"ts"`
}

// EventNotifier publishes held records as HeldEvent messages.
type EventNotifier struct {
	pub     Publisher
	subject string
}

// NewEventNotifier creates a Notifier publishing on subject.
func NewEventNotifier(pub Publisher, subject string) *EventNotifier {
	return &EventNotifier{pub: pub, subject: subject}
}

func (n *EventNotifier) NotifyHeld(_ context.Context, r *Record) error {
	data, err := json.Marshal(HeldEvent{Record: r, Ts: r.CreatedAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("forum: marshal held event: %w", err)
	}
	return n.pub.Publish(n.subject, data)
}
