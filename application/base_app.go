// Package application provides the process lifecycle of the quota service
// BaseApplication owns the DI container; CronApplication schedules enforcement on top of it
package application

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-quota/config"
	"github.com/KOMKZ/go-yogan-quota/di"
	"github.com/KOMKZ/go-yogan-quota/enforcer"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// BaseApplication configuration, logger and DI container of one process
type BaseApplication struct {
	injector *do.RootScope

	config *config.AppConfig
	logger *logger.CtxZapLogger

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	version string

	onShutdown func(context.Context) error
}

// AppState application state
type AppState int

const (
	StateInit AppState = iota
	StateRunning
	StateStopping
	StateStopped
)

// String state name
func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// NewBase registers the providers and loads the configuration.
// Every other component is created lazily on first use.
func NewBase(opts di.ConfigOptions) (*BaseApplication, error) {
	injector := di.New()
	di.RegisterProviders(injector, opts)

	cfg, err := do.Invoke[*config.AppConfig](injector)
	if err != nil {
		injector.Shutdown()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := do.MustInvoke[*logger.CtxZapLogger](injector)

	ctx, cancel := context.WithCancel(context.Background())
	log.DebugCtx(ctx, "✅ Application initialized",
		zap.String("config_path", opts.ConfigPath),
		zap.String("throttle_store", cfg.Throttle.Store))

	return &BaseApplication{
		injector: injector,
		config:   cfg,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateInit,
	}, nil
}

// WithVersion sets the version (chained)
func (b *BaseApplication) WithVersion(version string) *BaseApplication {
	b.version = version
	return b
}

// GetVersion version set by WithVersion
func (b *BaseApplication) GetVersion() string {
	return b.version
}

// RunEnforcement one history enforcement pass over every owner
func (b *BaseApplication) RunEnforcement(ctx context.Context) (enforcer.Summary, error) {
	e, err := do.Invoke[*enforcer.HistoryEnforcer](b.injector)
	if err != nil {
		return enforcer.Summary{}, fmt.Errorf("create enforcer: %w", err)
	}
	return e.Run(ctx)
}

// Shutdown runs the OnShutdown callback, then closes every component in the container
func (b *BaseApplication) Shutdown(timeout time.Duration) error {
	b.setState(StateStopping)
	b.logger.DebugCtx(b.ctx, "🔻 Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if b.onShutdown != nil {
		if err := b.onShutdown(ctx); err != nil {
			b.logger.ErrorCtx(ctx, "OnShutdown callback failed", zap.Error(err))
		}
	}

	if err := b.injector.ShutdownWithContext(ctx); err != nil {
		b.logger.ErrorCtx(ctx, "DI container shutdown failed", zap.Error(err))
	}

	b.logger.DebugCtx(ctx, "✅ All components closed")
	b.setState(StateStopped)
	b.cancel()
	return nil
}

// WaitShutdown blocks until SIGINT/SIGTERM or Cancel.
// A second signal exits immediately.
func (b *BaseApplication) WaitShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		b.logger.InfoCtx(b.ctx, "Shutdown signal received", zap.String("signal", sig.String()))
		b.cancel()

		go func() {
			sig := <-quit
			b.logger.WarnCtx(context.Background(), "⚠️  Second signal received, forcing exit!", zap.String("signal", sig.String()))
			os.Exit(1)
		}()

	case <-b.ctx.Done():
		b.logger.DebugCtx(context.Background(), "Context cancelled, starting graceful shutdown")
	}
}

// Cancel triggers shutdown
func (b *BaseApplication) Cancel() {
	b.cancel()
}

// OnShutdown registers the pre-shutdown callback
func (b *BaseApplication) OnShutdown(fn func(context.Context) error) *BaseApplication {
	b.onShutdown = fn
	return b
}

// Logger application logger
func (b *BaseApplication) Logger() *logger.CtxZapLogger {
	return b.logger
}

// Config loaded configuration
func (b *BaseApplication) Config() *config.AppConfig {
	return b.config
}

// GetInjector samber/do injector
func (b *BaseApplication) GetInjector() *do.RootScope {
	return b.injector
}

// GetState current state
func (b *BaseApplication) GetState() AppState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Context application context, cancelled on shutdown
func (b *BaseApplication) Context() context.Context {
	return b.ctx
}

func (b *BaseApplication) setState(state AppState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = state
	b.logger.DebugCtx(b.ctx, "State changed",
		zap.String("from", oldState.String()),
		zap.String("to", state.String()))
}
