// Package lock provides a Redis mutex for work that must run on only one
// instance at a time, such as generating the day's word.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces lock keys in Redis.
const KeyPrefix = "lock:"

// ErrTimeout is returned when the lock stays held for longer than the wait.
var ErrTimeout = errors.New("lock: wait timed out")

// releaseLua deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
const releaseLua = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker hands out SET NX locks with a random owner token.
type RedisLocker struct {
	rdb     *redis.Client
	release *redis.Script
	poll    time.Duration
	wait    time.Duration
	log     *zap.SugaredLogger
}

// NewRedisLocker creates a locker. Lock polls every 100ms and gives up after
// the lock's own TTL unless wait is set with WithWait.
func NewRedisLocker(rdb *redis.Client, log *zap.SugaredLogger) *RedisLocker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RedisLocker{
		rdb:     rdb,
		release: redis.NewScript(releaseLua),
		poll:    100 * time.Millisecond,
		log:     log,
	}
}

// WithWait caps how long Lock waits for a held key.
func (l *RedisLocker) WithWait(d time.Duration) *RedisLocker {
	l.wait = d
	return l
}

// TryLock makes a single attempt. ok is false when the key is held.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, KeyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return l.unlocker(key, token), true, nil
}

// Lock blocks until key is acquired, ctx is done, or the wait elapses.
// The lock expires after ttl even if unlock is never called.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	wait := l.wait
	if wait <= 0 {
		wait = ttl
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		unlock, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	return func() {
		// The caller's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.release.Run(ctx, l.rdb, []string{KeyPrefix + key}, token).Err(); err != nil {
			l.log.Warnw("[lock] release failed", "key", key, "error", err)
		}
	}
}
