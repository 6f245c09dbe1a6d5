package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig contains configuration for RedisLocker.
type RedisConfig struct {
	// KeyPrefix namespaces lock keys.
	// Default: "custodian:lock:"
	KeyPrefix string

	// TTL is how long a lock survives without release, bounding the damage
	// of a crashed holder.
	// Default: 1 hour
	TTL time.Duration
}

// RedisLocker is a Locker shared between processes through redis.
type RedisLocker struct {
	client redis.UniversalClient
	config RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a locker on an existing redis client.
func NewRedisLocker(client redis.UniversalClient, config RedisConfig) *RedisLocker {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "custodian:lock:"
	}
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	return &RedisLocker{
		client: client,
		config: config,
		logger: slog.Default().With("component", "lock.redis"),
	}
}

// Dial connects to redis and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// TryLock implements Locker.
func (l *RedisLocker) TryLock(ctx context.Context, name string) (func(), error) {
	key := l.config.KeyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %q: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", "lock", name, "error", err)
			}
		})
	}, nil
}
