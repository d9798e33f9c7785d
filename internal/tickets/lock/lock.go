package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// EventLocker serializes the booking engine's check-and-mutate sequence
// per event. Lock acquisition is try-once; the caller retries a bounded
// number of times.
type EventLocker interface {
	LockEvent(ctx context.Context, eventID, token string) (bool, error)
	UnlockEvent(ctx context.Context, eventID, token string) error
}

// RedisLocker holds per-event locks in redis via SetNX, with a TTL so a
// crashed holder cannot wedge an event forever.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: ttl}
}

func lockKey(eventID string) string {
	return "event_lock:" + eventID
}

func (r *RedisLocker) LockEvent(ctx context.Context, eventID, token string) (bool, error) {
	return r.Client.SetNX(ctx, lockKey(eventID), token, r.TTL).Result()
}

// UnlockEvent releases the lock only if this caller still holds it; a
// lock that expired and was re-acquired by someone else is left alone.
func (r *RedisLocker) UnlockEvent(ctx context.Context, eventID, token string) error {
	key := lockKey(eventID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LocalLocker is the in-process fallback used when redis is disabled.
// Good for a single instance only.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]string // eventID -> holder token
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]string)}
}

func (l *LocalLocker) LockEvent(_ context.Context, eventID, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locks[eventID]; held {
		return false, nil
	}
	l.locks[eventID] = token
	return true, nil
}

func (l *LocalLocker) UnlockEvent(_ context.Context, eventID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, held := l.locks[eventID]; held && holder != token {
		return fmt.Errorf("lock for event %s held by another booking", eventID)
	}
	delete(l.locks, eventID)
	return nil
}
