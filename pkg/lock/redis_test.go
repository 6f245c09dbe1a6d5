package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// redisLocker connects to CUSTODIAN_TEST_REDIS_ADDR or skips the test.
func redisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	addr := os.Getenv("CUSTODIAN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CUSTODIAN_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisLocker(client, RedisConfig{
		KeyPrefix: "custodian:test:" + uuid.NewString() + ":",
		TTL:       time.Minute,
	})
}

func TestRedisLocker_Exclusive(t *testing.T) {
	l := redisLocker(t)
	ctx := context.Background()

	release, err := l.TryLock(ctx, "backup")
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if _, err := l.TryLock(ctx, "backup"); !errors.Is(err, ErrLocked) {
		t.Errorf("second TryLock() error = %v, want ErrLocked", err)
	}

	release()

	again, err := l.TryLock(ctx, "backup")
	if err != nil {
		t.Fatalf("TryLock() after release error = %v", err)
	}
	again()
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	l := redisLocker(t)
	ctx := context.Background()

	release, err := l.TryLock(ctx, "retention")
	if err != nil {
		t.Fatal(err)
	}

	// Simulate expiry and takeover by another instance.
	key := l.config.KeyPrefix + "retention"
	if err := l.client.Set(ctx, key, "someone-else", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}

	release()

	got, err := l.client.Get(ctx, key).Result()
	if err != nil || got != "someone-else" {
		t.Errorf("foreign lock = %q, %v; release must not delete it", got, err)
	}
	l.client.Del(ctx, key)
}

func TestDial_RequiresAddr(t *testing.T) {
	if _, err := Dial(context.Background(), "", "", 0); err == nil {
		t.Error("expected error for empty addr")
	}
}
