package config

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/database"
	"github.com/KOMKZ/go-yogan-quota/enforcer"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/redis"
	"github.com/KOMKZ/go-yogan-quota/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Counter store kinds
const (
	StoreGorm   = "gorm"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// AppConfig configuration of the quota service
type AppConfig struct {
	Database map[string]database.Config `mapstructure:"database"`
	Redis    redis.Config               `mapstructure:"redis"`
	Logger   logger.ManagerConfig       `mapstructure:"logger"`
	Quota    QuotaConfig                `mapstructure:"quota"`
	Throttle ThrottleConfig             `mapstructure:"throttle"`
	Enforcer EnforcerConfig             `mapstructure:"enforcer"`
}

// QuotaConfig baseline limits every group starts from; -1 means unlimited
type QuotaConfig struct {
	DefaultLimits quota.UsageLimits `mapstructure:"default_limits"`
}

// Baseline configured defaults with -1 turned into unlimited
func (c QuotaConfig) Baseline() quota.UsageLimits {
	return c.DefaultLimits.Normalize()
}

// ThrottleConfig API credit counter settings
type ThrottleConfig struct {
	Store     string `mapstructure:"store"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// EnforcerConfig scheduled history enforcement
type EnforcerConfig struct {
	// Schedule cron expression of the recurring run
	Schedule string `mapstructure:"schedule"`
	// ShutdownTimeout how long shutdown waits for a running enforcement
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	enforcer.Config `mapstructure:",squash"`
}

// DefaultAppConfig values used for every key no source sets
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Database: map[string]database.Config{},
		Redis:    redis.Config{Addr: "127.0.0.1:6379"},
		Logger:   logger.DefaultManagerConfig(),
		Quota:    QuotaConfig{DefaultLimits: quota.DefaultLimits()},
		Throttle: ThrottleConfig{Store: StoreGorm, KeyPrefix: "quota:api_credits:"},
		Enforcer: EnforcerConfig{
			Schedule:        "*/15 * * * *",
			ShutdownTimeout: 30 * time.Second,
			Config:          enforcer.DefaultConfig(),
		},
	}
}

// EnvKeys keys that may be overridden through environment variables
func EnvKeys() []string {
	return []string{
		"database.default.driver",
		"database.default.dsn",
		"redis.addr",
		"redis.password",
		"redis.db",
		"logger.level",
		"logger.encoding",
		"logger.base_log_dir",
		"throttle.store",
		"throttle.key_prefix",
		"enforcer.schedule",
		"enforcer.shutdown_timeout",
		"enforcer.workers",
		"enforcer.max_purge_per_owner",
		"enforcer.reservation_count",
	}
}

// Validate ozzo rules of every section
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Throttle),
		validation.Field(&c.Enforcer),
		validation.Field(&c.Redis, validation.When(c.Throttle.Store == StoreRedis, validation.By(func(interface{}) error {
			if c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
				return fmt.Errorf("redis addr is required by the redis counter store")
			}
			return nil
		}))),
		validation.Field(&c.Database, validation.When(c.Throttle.Store == StoreGorm, validation.By(func(interface{}) error {
			if _, ok := c.Database["default"]; !ok {
				return fmt.Errorf("a \"default\" database is required by the gorm counter store")
			}
			return nil
		}))),
	)
}

func (c ThrottleConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Store, validation.Required, validation.In(StoreGorm, StoreRedis, StoreMemory)),
	)
}

func (c EnforcerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Schedule, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.ReservationCount, validation.Min(0)),
	)
}

// LoadAppConfig layers configPath files, configFile and PREFIX_ variables over
// the defaults, then validates the result
func LoadAppConfig(configPath, configFile, envPrefix string) (AppConfig, error) {
	loader, err := NewLoaderBuilder().
		WithConfigPath(configPath).
		WithConfigFile(configFile).
		WithEnvPrefix(envPrefix, EnvKeys()...).
		Build()
	if err != nil {
		return AppConfig{}, err
	}
	return Decode(loader)
}

// Decode unmarshals loader over DefaultAppConfig and validates
func Decode(loader *Loader) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := loader.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Logger.ApplyDefaults()
	if err := cfg.Logger.Validate(); err != nil {
		return AppConfig{}, err
	}
	for name, db := range cfg.Database {
		if err := db.Validate(); err != nil {
			return AppConfig{}, fmt.Errorf("database %s: %w", name, err)
		}
		cfg.Database[name] = db
	}
	if err := validator.Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
