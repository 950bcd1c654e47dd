package redis

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager owns one standalone or cluster client
type Manager struct {
	client redis.UniversalClient
	config Config
	logger *logger.CtxZapLogger
}

// NewManager connects with cfg; log may be nil
func NewManager(ctx context.Context, cfg Config, log *logger.CtxZapLogger) (*Manager, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if log != nil {
		log.DebugCtx(ctx, "Redis connection successful",
			zap.String("mode", cfg.Mode),
			zap.Strings("addrs", cfg.Addrs))
	}
	return &Manager{client: client, config: cfg, logger: log}, nil
}

// Client the underlying client
func (m *Manager) Client() redis.UniversalClient {
	return m.client
}

// Ping checks the connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the connection
func (m *Manager) Close() error {
	err := m.client.Close()
	if m.logger != nil {
		if err != nil {
			m.logger.ErrorCtx(context.Background(), "failed to close Redis connection", zap.Error(err))
		} else {
			m.logger.DebugCtx(context.Background(), "Redis connection closed")
		}
	}
	return err
}

// Shutdown closes the connection when the DI container shuts down
func (m *Manager) Shutdown() error {
	return m.Close()
}

// NewClient creates a standalone or cluster client and pings it
func NewClient(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	var client redis.UniversalClient
	switch cfg.Mode {
	case ModeCluster:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	default:
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addrs[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return client, nil
}
