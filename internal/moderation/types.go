package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModerationRequest is sent on moderation.check by the API server when the
// cascade runs in the moderator service.
type ModerationRequest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Ts        int64  `json:"ts"`
}

// ModerationResult is the moderator service's reply.
type ModerationResult struct {
	RequestID string  `json:"request_id"`
	Verdict   Verdict `json:"verdict"`
}

// Requester performs a request/reply round trip on a subject.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// Remote is a Moderator that delegates to the moderator service and falls
// back to a local Moderator when the service does not answer.
type Remote struct {
	req      Requester
	subject  string
	fallback Moderator
	timeout  time.Duration
	log      *zap.SugaredLogger
}

// NewRemote creates a Remote moderator publishing on subject.
func NewRemote(req Requester, subject string, fallback Moderator, log *zap.SugaredLogger) *Remote {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Remote{req: req, subject: subject, fallback: fallback, log: log}
}

// WithTimeout bounds each remote round trip. It should cover the worker's
// whole cascade (see Cascade.Budget), otherwise a slow but healthy worker is
// abandoned and the text is moderated twice. Zero leaves the requester's
// default.
func (r *Remote) WithTimeout(d time.Duration) *Remote {
	r.timeout = d
	return r
}

// Moderate implements Moderator.
func (r *Remote) Moderate(ctx context.Context, text string) Verdict {
	v, err := r.remote(ctx, text)
	if err == nil {
		return v
	}
	r.log.Warnw("[moderation] remote check failed, moderating inline", "error", err)
	return r.fallback.Moderate(ctx, text)
}

func (r *Remote) remote(ctx context.Context, text string) (Verdict, error) {
	id := uuid.NewString()
	data, err := json.Marshal(ModerationRequest{RequestID: id, Text: text, Ts: time.Now().UnixMilli()})
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: marshal request: %w", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	reply, err := r.req.Request(ctx, r.subject, data)
	if err != nil {
		return Verdict{}, err
	}
	var res ModerationResult
	if err := json.Unmarshal(reply, &res); err != nil {
		return Verdict{}, fmt.Errorf("moderation: unmarshal result: %w", err)
	}
	if res.RequestID != id {
		return Verdict{}, fmt.Errorf("moderation: reply for %q, want %q", res.RequestID, id)
	}
	return res.Verdict, nil
}

// HandleRequest runs m over an encoded ModerationRequest and returns the
// encoded ModerationResult. It is the moderator service's message handler.
func HandleRequest(ctx context.Context, m Moderator, data []byte) ([]byte, error) {
	var req ModerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("moderation: unmarshal request: %w", err)
	}
	res := ModerationResult{RequestID: req.RequestID, Verdict: m.Moderate(ctx, req.Text)}
	out, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("moderation: marshal result: %w", err)
	}
	return out, nil
}
