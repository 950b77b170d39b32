// Package redislock is a single-key mutual exclusion lock on Redis (SET NX PX
// with a token-checked release).
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("redislock: not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	rdb    redis.UniversalClient
	prefix string
}

func New(rdb redis.UniversalClient, prefix string) *Locker {
	return &Locker{rdb: rdb, prefix: prefix}
}

// Lock is a held lock. Release is safe to call more than once.
type Lock struct {
	l     *Locker
	key   string
	token string
}

// TryAcquire takes the lock if it is free.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	full := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redislock: set %s: %w", full, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{l: l, key: full, token: token}, nil
}

// Acquire polls until the lock is taken, ctx ends or wait elapses.
func (l *Locker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (*Lock, error) {
	deadline := time.Now().Add(wait)
	backoff := 25 * time.Millisecond
	for {
		lk, err := l.TryAcquire(ctx, key, ttl)
		if err == nil {
			return lk, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

func (lk *Lock) Release(ctx context.Context) error {
	if lk == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, lk.l.rdb, []string{lk.key}, lk.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redislock: release %s: %w", lk.key, err)
	}
	return nil
}
