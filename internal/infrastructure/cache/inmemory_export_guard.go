package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// holder is one held key with its token and expiration
type holder struct {
	token     string
	expiresAt time.Time
}

// InMemoryExportGuard implements ExportGuard with an in-process map.
// Suitable for single-instance deployments, the CLI and tests.
type InMemoryExportGuard struct {
	mu        sync.Mutex
	held      map[string]holder
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryExportGuard creates a guard and starts the background sweep
// that drops expired keys.
func NewInMemoryExportGuard() *InMemoryExportGuard {
	return newInMemoryExportGuard(time.Minute)
}

func newInMemoryExportGuard(interval time.Duration) *InMemoryExportGuard {
	g := &InMemoryExportGuard{
		held:     make(map[string]holder),
		interval: interval,
		stopChan: make(chan struct{}),
	}

	g.wg.Add(1)
	go g.cleanupLoop()

	return g
}

// Acquire holds key for ttl unless an unexpired holder exists
func (g *InMemoryExportGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if h, exists := g.held[key]; exists && now.Before(h.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	g.held[key] = holder{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release frees key if it is still held under token
func (g *InMemoryExportGuard) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, exists := g.held[key]; exists && h.token == token {
		delete(g.held, key)
	}
	return nil
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (g *InMemoryExportGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

func (g *InMemoryExportGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *InMemoryExportGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, h := range g.held {
		if now.After(h.expiresAt) {
			delete(g.held, key)
		}
	}
}

// Size returns the number of held keys, expired or not (for testing)
func (g *InMemoryExportGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

var _ ExportGuard = (*InMemoryExportGuard)(nil)
