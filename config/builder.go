package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder assembles the standard layers:
// <dir>/config.yaml, <dir>/<env>.yaml, then PREFIX_ environment variables.
type LoaderBuilder struct {
	configPath string
	configFile string
	envPrefix  string
	envKeys    []string
}

// NewLoaderBuilder creates a builder
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath configuration directory
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithConfigFile extra file layered above the directory files
func (b *LoaderBuilder) WithConfigFile(file string) *LoaderBuilder {
	b.configFile = file
	return b
}

// WithEnvPrefix environment variable prefix
func (b *LoaderBuilder) WithEnvPrefix(prefix string, keys ...string) *LoaderBuilder {
	b.envPrefix = prefix
	b.envKeys = keys
	return b
}

// Build creates and loads the loader
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}
	if b.configFile != "" {
		loader.AddSource(NewFileSource(b.configFile, 30))
	}
	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50, b.envKeys...))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv APP_ENV, then ENV, default dev
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
