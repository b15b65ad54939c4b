package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()
	leadID := uuid.New()

	ok, err := locker.Acquire(ctx, leadID, "session-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = locker.Acquire(ctx, leadID, "session-b", time.Minute)
	if err != nil {
		t.Fatalf("second acquire returned error: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire for the same lead to fail")
	}
}

func TestReleaseOnlyByOwner(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()
	leadID := uuid.New()

	if _, err := locker.Acquire(ctx, leadID, "session-a", time.Minute); err != nil {
		t.Fatalf("acquire returned error: %v", err)
	}

	if err := locker.Release(ctx, leadID, "session-b"); err != nil {
		t.Fatalf("release by non-owner returned error: %v", err)
	}
	if !mr.Exists(key(leadID)) {
		t.Fatal("expected lock to survive release by a different owner")
	}

	if err := locker.Release(ctx, leadID, "session-a"); err != nil {
		t.Fatalf("release by owner returned error: %v", err)
	}
	if mr.Exists(key(leadID)) {
		t.Fatal("expected lock to be gone after owner release")
	}
}

func TestLockExpiresAndRefreshExtends(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()
	leadID := uuid.New()

	if _, err := locker.Acquire(ctx, leadID, "session-a", 10*time.Second); err != nil {
		t.Fatalf("acquire returned error: %v", err)
	}

	mr.FastForward(8 * time.Second)
	if err := locker.Refresh(ctx, leadID, "session-a", 10*time.Second); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	mr.FastForward(8 * time.Second)
	if !mr.Exists(key(leadID)) {
		t.Fatal("expected refreshed lock to still exist")
	}

	mr.FastForward(5 * time.Second)
	ok, err := locker.Acquire(ctx, leadID, "session-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected expired lock to be acquirable, ok=%v err=%v", ok, err)
	}
}
