package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader merges sources by priority into a viper instance
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{}
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource adds a layer
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load reads every source, lowest priority first
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]interface{})
	l.loadedFiles = nil
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("load source %s: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok {
			l.loadedFiles = append(l.loadedFiles, fs.path)
		}
		for key, value := range data {
			l.merged[key] = value
		}
	}

	l.v = viper.New()
	for key, value := range unflatten(l.merged) {
		l.v.Set(key, value)
	}
	return nil
}

// unflatten {"a.b": 1} -> {"a": {"b": 1}}
func unflatten(flat map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range flat {
		parts := strings.Split(key, ".")
		current := result
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = value
	}
	return result
}

// Unmarshal decodes into v; fields absent from every source keep their value
func (l *Loader) Unmarshal(v interface{}) error {
	return l.v.Unmarshal(v)
}

func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// GetLoadedFiles files that were read, missing ones included
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper underlying viper instance
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}
