// Package ratelimit throttles per-user actions such as guesses and
// moderation checks. The Redis limiter uses INCR + EXPIRE fixed windows
// shared by every API instance; MemoryLimiter is the single-process
// fallback built on token buckets.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Rule defines a rate limiting policy: the key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // key prefix (e.g., "rl:guess:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// PerMinute builds a rule allowing limit requests per minute under key.
func PerMinute(key string, limit int) Rule {
	return Rule{Key: key, Limit: limit, Window: time.Minute}
}

// Default rules, overridden from configuration by the API server.
var (
	// RuleGuess allows 20 word game guesses per minute per user.
	RuleGuess = PerMinute("rl:guess:", 20)

	// RuleModeration allows 30 moderation checks or post screens per minute per user.
	RuleModeration = PerMinute("rl:mod:", 30)
)

// Allower is implemented by both limiters.
type Allower interface {
	Allow(ctx context.Context, identifier string, rule Rule) (bool, error)
}

// windowScript counts one hit and starts the window on the first, so a
// counter never exists without a TTL.
var windowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter is a fixed-window counter in Redis shared by every API instance.
// Backend errors fail open.
type Limiter struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client *redis.Client, log *zap.SugaredLogger) *Limiter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Limiter{client: client, log: log}
}

// Allow records one hit for identifier under rule and reports whether it is
// still within the limit. A non-nil error always comes with true.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier
	hits, err := windowScript.Run(ctx, l.client, []string{key}, rule.Window.Milliseconds()).Int64()
	if err != nil {
		l.log.Warnw("[ratelimit] window script failed, allowing", "key", key, "error", err)
		return true, fmt.Errorf("ratelimit: allow %s: %w", key, err)
	}
	return hits <= int64(rule.Limit), nil
}

// Remaining reports how many hits identifier has left in its current window.
// An unknown key, or a backend error, reports the full limit.
func (l *Limiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	key := rule.Key + identifier
	hits, err := l.client.Get(ctx, key).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return rule.Limit, nil
	case err != nil:
		return rule.Limit, fmt.Errorf("ratelimit: remaining %s: %w", key, err)
	}
	return max(rule.Limit-hits, 0), nil
}
