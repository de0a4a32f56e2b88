package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultGuardKeyPrefix namespaces export guard keys in Redis
const DefaultGuardKeyPrefix = "paystub:export:"

// releaseScript deletes the key only while it still carries the caller's
// token, so an export whose hold expired cannot free a newer holder's key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisExportGuard implements ExportGuard with Redis so that several server
// instances share one view of in-flight exports.
type RedisExportGuard struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection parameters
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisExportGuard connects to Redis and verifies the connection
func NewRedisExportGuard(cfg RedisConfig) (*RedisExportGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisExportGuardWithClient(client, DefaultGuardKeyPrefix), nil
}

// NewRedisExportGuardWithClient creates a guard on an existing client
func NewRedisExportGuardWithClient(client *redis.Client, keyPrefix string) *RedisExportGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultGuardKeyPrefix
	}
	return &RedisExportGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire holds key with SET NX PX so acquisition and expiry are atomic.
// The stored value is a token unique to this acquisition.
func (g *RedisExportGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire export guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees key if it is still held under token
func (g *RedisExportGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.keyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release export guard: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (g *RedisExportGuard) Close() error {
	return g.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (g *RedisExportGuard) GetClient() *redis.Client {
	return g.client
}

var _ ExportGuard = (*RedisExportGuard)(nil)
