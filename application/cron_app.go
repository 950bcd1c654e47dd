package application

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/di"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// EnforcementJobName name of the scheduled enforcement job
const EnforcementJobName = "history-enforcement"

// CronApplication runs history enforcement on the configured schedule
type CronApplication struct {
	*BaseApplication

	scheduler      gocron.Scheduler
	cronOnShutdown func(*CronApplication) error
}

// NewCron creates the application and its UTC scheduler
func NewCron(opts di.ConfigOptions) (*CronApplication, error) {
	base, err := NewBase(opts)
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		base.Shutdown(time.Second)
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &CronApplication{
		BaseApplication: base,
		scheduler:       scheduler,
	}, nil
}

// Run starts the scheduler and blocks until a shutdown signal
func (a *CronApplication) Run() error {
	if err := a.run(); err != nil {
		return err
	}
	a.WaitShutdown()
	return a.gracefulShutdown()
}

// RunNonBlocking starts the scheduler and returns
func (a *CronApplication) RunNonBlocking() error {
	return a.run()
}

func (a *CronApplication) run() error {
	if err := a.RegisterEnforcement(); err != nil {
		return fmt.Errorf("register enforcement: %w", err)
	}

	a.scheduler.Start()
	a.setState(StateRunning)

	a.logger.InfoCtx(a.ctx, "✅ Cron application started",
		zap.String("schedule", a.config.Enforcer.Schedule),
		zap.Int("jobs", len(a.scheduler.Jobs())))
	return nil
}

// RegisterEnforcement schedules history enforcement once.
// A run still in progress when the next one is due skips that slot.
func (a *CronApplication) RegisterEnforcement() error {
	for _, job := range a.scheduler.Jobs() {
		if job.Name() == EnforcementJobName {
			return nil
		}
	}

	_, err := a.RegisterTask(a.config.Enforcer.Schedule, a.enforce,
		gocron.WithName(EnforcementJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (a *CronApplication) enforce() {
	if _, err := a.RunEnforcement(a.ctx); err != nil {
		a.logger.ErrorCtx(a.ctx, "History enforcement failed", zap.Error(err))
	}
}

// RegisterTask adds a cron job
func (a *CronApplication) RegisterTask(cronExpr string, task interface{}, options ...gocron.JobOption) (gocron.Job, error) {
	return a.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		options...,
	)
}

// GetScheduler scheduler instance
func (a *CronApplication) GetScheduler() gocron.Scheduler {
	return a.scheduler
}

// OnShutdown registers the shutdown callback
func (a *CronApplication) OnShutdown(fn func(*CronApplication) error) *CronApplication {
	a.cronOnShutdown = fn
	return a
}

// Shutdown triggers a manual shutdown
func (a *CronApplication) Shutdown() {
	a.Cancel()
}

// Stop shuts down the scheduler and the container; for RunNonBlocking callers
func (a *CronApplication) Stop() error {
	a.Cancel()
	return a.gracefulShutdown()
}

func (a *CronApplication) gracefulShutdown() error {
	ctx := context.Background()
	a.logger.DebugCtx(ctx, "Starting Cron application graceful shutdown...")

	if a.cronOnShutdown != nil {
		if err := a.cronOnShutdown(a); err != nil {
			a.logger.ErrorCtx(ctx, "Cron OnShutdown callback failed", zap.Error(err))
		}
	}

	if err := a.shutdownSchedulerWithTimeout(a.config.Enforcer.ShutdownTimeout); err != nil {
		a.logger.ErrorCtx(ctx, "Scheduler close exception", zap.Error(err))
	}

	return a.BaseApplication.Shutdown(10 * time.Second)
}

// shutdownSchedulerWithTimeout waits for running jobs up to timeout
func (a *CronApplication) shutdownSchedulerWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx := context.Background()

	a.logger.DebugCtx(ctx, "Shutting down scheduler, waiting for tasks to complete...",
		zap.Duration("timeout", timeout))

	done := make(chan error, 1)
	go func() {
		done <- a.scheduler.Shutdown()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		a.logger.DebugCtx(ctx, "✅ Scheduler closed, all tasks completed")
		return nil
	case <-time.After(timeout):
		a.logger.WarnCtx(ctx, "⚠️  Scheduler close timeout, forcing exit",
			zap.Duration("timeout", timeout))
		return fmt.Errorf("scheduler shutdown timeout (%v)", timeout)
	}
}
