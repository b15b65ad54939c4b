// Package lock provides per-lead locks for conversion sessions.
package lock

import (
	"context"
	"fmt"
	"time"

	"portal_backend/internal/conversion/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conversion:lead:"

// releaseScript deletes the key only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the key only if it is still held by the caller.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements ports.LeadLocker with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker wraps an existing client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// NewRedisLockerFromURL parses a redis:// or rediss:// URL.
func NewRedisLockerFromURL(redisURL string) (*RedisLocker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisLocker(redis.NewClient(opt)), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, leadID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key(leadID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lead lock: %w", err)
	}
	return ok, nil
}

func (l *RedisLocker) Refresh(ctx context.Context, leadID uuid.UUID, owner string, ttl time.Duration) error {
	if err := refreshScript.Run(ctx, l.client, []string{key(leadID)}, owner, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("refresh lead lock: %w", err)
	}
	return nil
}

func (l *RedisLocker) Release(ctx context.Context, leadID uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key(leadID)}, owner).Err(); err != nil {
		return fmt.Errorf("release lead lock: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

func key(leadID uuid.UUID) string {
	return keyPrefix + leadID.String()
}

// Noop always grants the lock. Used when Redis is not configured; the
// registry's PutIfAbsent still keeps one session per lead on one instance.
type Noop struct{}

func (Noop) Acquire(context.Context, uuid.UUID, string, time.Duration) (bool, error) {
	return true, nil
}

func (Noop) Refresh(context.Context, uuid.UUID, string, time.Duration) error { return nil }

func (Noop) Release(context.Context, uuid.UUID, string) error { return nil }

var (
	_ ports.LeadLocker = (*RedisLocker)(nil)
	_ ports.LeadLocker = Noop{}
)
