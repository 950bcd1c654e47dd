// Package di wires the quota services into a samber/do injector.
package di

import "github.com/samber/do/v2"

// Injector type alias
type Injector = do.Injector

// RootScope type alias
type RootScope = do.RootScope

// New creates a root injector
var New = do.New

// ConfigOptions where the configuration is read from
type ConfigOptions struct {
	ConfigPath string // configuration directory
	ConfigFile string // extra file layered above the directory files
	EnvPrefix  string // environment variable prefix
}

// RegisterProviders registers every provider by dependency layer; all lazy
func RegisterProviders(injector do.Injector, opts ConfigOptions) {
	// Layer 0: config
	do.Provide(injector, ProvideAppConfig(opts))

	// Layer 1: logger
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideCtxLogger("quota"))

	// Layer 2: infrastructure
	do.Provide(injector, ProvideDatabaseManager)
	do.Provide(injector, ProvideDefaultDB)
	do.Provide(injector, ProvideRedisManager)

	// Layer 3: quota services
	do.Provide(injector, ProvideResolver)
	do.Provide(injector, ProvideHistoryEngine)
	do.Provide(injector, ProvideVolumeLimiter)
	do.Provide(injector, ProvideVolumeWriter)
	do.Provide(injector, ProvideCounterStore)
	do.Provide(injector, ProvideThrottle)
	do.Provide(injector, ProvideEnforcer)
	do.Provide(injector, ProvideHealthAggregator)
}
