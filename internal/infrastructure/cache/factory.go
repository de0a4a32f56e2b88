package cache

import (
	"fmt"

	"github.com/evmosdao/paystub/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ExportGuardFactory creates export guards based on configuration
type ExportGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ExportGuardFactoryOption is a functional option for configuring the factory
type ExportGuardFactoryOption func(*ExportGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ExportGuardFactoryOption {
	return func(f *ExportGuardFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory guard
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ExportGuardFactoryOption {
	return func(f *ExportGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewExportGuardFactory creates a new factory
func NewExportGuardFactory(cfg config.RedisConfig, opts ...ExportGuardFactoryOption) *ExportGuardFactory {
	f := &ExportGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-backed guard
func (f *ExportGuardFactory) CreateRedisGuard() (ExportGuard, error) {
	guard, err := NewRedisExportGuard(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis export guard: %w", err)
	}
	return guard, nil
}

// CreateInMemoryGuard creates an in-process guard.
// It does not coordinate exports across server instances.
func (f *ExportGuardFactory) CreateInMemoryGuard() ExportGuard {
	return NewInMemoryExportGuard()
}

// CreateGuard returns the in-memory guard when Redis is disabled. Otherwise
// it tries Redis and falls back to in-memory if allowed.
func (f *ExportGuardFactory) CreateGuard() (ExportGuard, error) {
	if !f.redisConfig.Enabled {
		f.logger.Debug("Redis disabled, using in-memory export guard")
		return f.CreateInMemoryGuard(), nil
	}

	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("using Redis export guard", zap.String("addr", f.redisConfig.Addr()))
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for export guard but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory export guard. "+
		"Concurrent exports are only detected within this instance.",
		zap.Error(err),
	)
	return f.CreateInMemoryGuard(), nil
}
