package di

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/config"
	"github.com/KOMKZ/go-yogan-quota/database"
	"github.com/KOMKZ/go-yogan-quota/enforcer"
	"github.com/KOMKZ/go-yogan-quota/health"
	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/redis"
	"github.com/KOMKZ/go-yogan-quota/throttle"
	"github.com/KOMKZ/go-yogan-quota/volume"
	"github.com/samber/do/v2"
	"gorm.io/gorm"
)

// DefaultDatabase connection name used by the quota stores
const DefaultDatabase = "default"

// ProvideAppConfig loads and validates the configuration; no dependencies
func ProvideAppConfig(opts ConfigOptions) func(do.Injector) (*config.AppConfig, error) {
	return func(i do.Injector) (*config.AppConfig, error) {
		cfg, err := config.LoadAppConfig(opts.ConfigPath, opts.ConfigFile, opts.EnvPrefix)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	}
}

// ProvideLoggerManager falls back to the default logger config without a loaded config
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}
	return logger.NewManager(cfg.Logger), nil
}

// ProvideCtxLogger named module logger
func ProvideCtxLogger(moduleName string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.GetLogger(moduleName), nil
		}
		return mgr.GetLogger(moduleName), nil
	}
}

// ProvideDatabaseManager opens every configured connection
func ProvideDatabaseManager(i do.Injector) (*database.Manager, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return database.NewManager(cfg.Database, database.DefaultGormLoggerFactory, log)
}

// ProvideDefaultDB the "default" connection
func ProvideDefaultDB(i do.Injector) (*gorm.DB, error) {
	mgr, err := do.Invoke[*database.Manager](i)
	if err != nil {
		return nil, err
	}
	db := mgr.DB(DefaultDatabase)
	if db == nil {
		return nil, ErrComponentNotFound("database connection: " + DefaultDatabase)
	}
	return db, nil
}

// ProvideRedisManager connects to the configured Redis
func ProvideRedisManager(i do.Injector) (*redis.Manager, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return redis.NewManager(context.Background(), cfg.Redis, log)
}

// ProvideResolver subscription backed limits resolver
func ProvideResolver(i do.Injector) (*quota.Resolver, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return quota.NewResolver(quota.NewGormSubscriptionSource(db), log, quota.WithBaseline(cfg.Quota.Baseline())), nil
}

// ProvideHistoryEngine execution history purge engine
func ProvideHistoryEngine(i do.Injector) (*history.Engine, error) {
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	resolver, err := do.Invoke[*quota.Resolver](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return history.NewEngine(history.NewGormExecutionStore(db), resolver, log), nil
}

// ProvideVolumeLimiter event and notification eviction
func ProvideVolumeLimiter(i do.Injector) (*volume.Limiter, error) {
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	resolver, err := do.Invoke[*quota.Resolver](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return volume.NewLimiter(volume.NewGormRecordStore(db), resolver, log), nil
}

// ProvideVolumeWriter creates records and applies the volume limits
func ProvideVolumeWriter(i do.Injector) (*volume.Writer, error) {
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	limiter, err := do.Invoke[*volume.Limiter](i)
	if err != nil {
		return nil, err
	}
	return volume.NewWriter(db, limiter), nil
}

// ProvideCounterStore API credit counter selected by throttle.store
func ProvideCounterStore(i do.Injector) (throttle.CounterStore, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}

	switch cfg.Throttle.Store {
	case config.StoreGorm:
		db, err := do.Invoke[*gorm.DB](i)
		if err != nil {
			return nil, err
		}
		return throttle.NewGormCounterStore(db), nil
	case config.StoreRedis:
		mgr, err := do.Invoke[*redis.Manager](i)
		if err != nil {
			return nil, err
		}
		return throttle.NewRedisCounterStore(mgr.Client(), cfg.Throttle.KeyPrefix), nil
	case config.StoreMemory:
		return throttle.NewMemoryCounterStore(), nil
	default:
		return nil, fmt.Errorf("unknown throttle store: %s", cfg.Throttle.Store)
	}
}

// ProvideThrottle API credit throttle
func ProvideThrottle(i do.Injector) (*throttle.Throttle, error) {
	store, err := do.Invoke[throttle.CounterStore](i)
	if err != nil {
		return nil, err
	}
	resolver, err := do.Invoke[*quota.Resolver](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return throttle.New(store, resolver, log)
}

// ProvideEnforcer periodic history enforcement over every task and workflow
func ProvideEnforcer(i do.Injector) (*enforcer.HistoryEnforcer, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	engine, err := do.Invoke[*history.Engine](i)
	if err != nil {
		return nil, err
	}
	resolver, err := do.Invoke[*quota.Resolver](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)
	return enforcer.New(
		enforcer.NewGormOwnerSource(db),
		engine,
		resolver,
		enforcer.NewLogReporter(log),
		log,
		cfg.Enforcer.Config,
	), nil
}

// ProvideHealthAggregator checks the database, and Redis when it backs the credit counter
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	cfg, err := do.Invoke[*config.AppConfig](i)
	if err != nil {
		return nil, err
	}

	agg := health.NewAggregator(5 * time.Second)
	agg.SetMetadata("throttle_store", cfg.Throttle.Store)

	agg.Register(health.CheckFunc("database", func(ctx context.Context) error {
		mgr, err := do.Invoke[*database.Manager](i)
		if err != nil {
			return err
		}
		return mgr.Ping()
	}))
	if cfg.Throttle.Store == config.StoreRedis {
		agg.Register(health.CheckFunc("redis", func(ctx context.Context) error {
			mgr, err := do.Invoke[*redis.Manager](i)
			if err != nil {
				return err
			}
			return mgr.Ping(ctx)
		}))
	}
	return agg, nil
}

// ErrComponentNotFound component missing from the container
func ErrComponentNotFound(name string) error {
	return &ComponentNotFoundError{Name: name}
}

// ComponentNotFoundError component missing from the container
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return "component not found: " + e.Name
}
