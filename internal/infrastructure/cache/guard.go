package cache

import (
	"context"
	"time"
)

// ExportGuard marks a session as having an export in flight.
// Acquire returns a fresh token and true if the key was free and is now
// held by the caller, or false if another export already holds it.
type ExportGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)

	// Release frees key only while it is still held under token. A hold
	// that expired and was taken by another export is left alone.
	// Releasing a key that is not held is a no-op.
	Release(ctx context.Context, key, token string) error

	// Close releases resources held by the guard
	Close() error
}
