// Package config loads layered configuration (files, environment) into viper.
package config

// ConfigSource one layer of configuration.
// Keys are dot separated, e.g. "enforcer.workers".
type ConfigSource interface {
	Name() string

	// Priority higher values override lower ones
	// (config.yaml 10, <env>.yaml 20, environment 50)
	Priority() int

	Load() (map[string]interface{}, error)
}
