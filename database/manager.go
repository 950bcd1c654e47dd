package database

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerFactory builds the gorm logger for one connection
type GormLoggerFactory func(cfg Config) gormlogger.Interface

// DefaultGormLoggerFactory routes SQL logs to the logger package
func DefaultGormLoggerFactory(cfg Config) gormlogger.Interface {
	if !cfg.EnableLog {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	lc := logger.DefaultGormLoggerConfig()
	lc.SlowThreshold = cfg.SlowThreshold
	lc.EnableAudit = cfg.EnableAudit
	return logger.NewGormLogger(lc)
}

// Manager owns named database connections
type Manager struct {
	instances     map[string]*gorm.DB
	configs       map[string]Config
	loggerFactory GormLoggerFactory
	logger        *logger.CtxZapLogger
	mu            sync.RWMutex
}

// NewManager opens every configured connection
func NewManager(configs map[string]Config, loggerFactory GormLoggerFactory, log *logger.CtxZapLogger) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	m := &Manager{
		instances:     make(map[string]*gorm.DB),
		configs:       make(map[string]Config),
		loggerFactory: loggerFactory,
		logger:        log,
	}

	for name, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config for %s: %w", name, err)
		}

		db, err := m.openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", name, err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB for %s: %w", name, err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		m.instances[name] = db
		m.configs[name] = cfg

		m.logger.Debug("Database connection successful",
			zap.String("name", name),
			zap.String("driver", cfg.Driver))
	}

	return m, nil
}

// Dialector selects the gorm dialector for driver
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

func (m *Manager) openDB(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	gormLogger := gormlogger.Default.LogMode(gormlogger.Silent)
	if m.loggerFactory != nil {
		gormLogger = m.loggerFactory(cfg)
	}

	return gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
}

// DB returns the named connection or nil
func (m *Manager) DB(name string) *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[name]
}

// Close closes every connection
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, db := range m.instances {
		sqlDB, err := db.DB()
		if err != nil {
			m.logger.Error("Failed to get sql.DB", zap.String("name", name), zap.Error(err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			m.logger.Error("Failed to close database connection", zap.String("name", name), zap.Error(err))
		} else {
			m.logger.Debug("Database connection closed", zap.String("name", name))
		}
	}
	return nil
}

// Shutdown implements do.Shutdowner
func (m *Manager) Shutdown() error {
	return m.Close()
}

// Ping checks every connection
func (m *Manager) Ping() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, db := range m.instances {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB for %s: %w", name, err)
		}
		if err := sqlDB.Ping(); err != nil {
			return fmt.Errorf("ping failed for %s: %w", name, err)
		}
	}
	return nil
}

// Stats connection pool statistics of the named connection
func (m *Manager) Stats(name string) (sql.DBStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	db, ok := m.instances[name]
	if !ok {
		return sql.DBStats{}, fmt.Errorf("database %s not found", name)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
