package config

import (
	"os"
	"strings"
)

// EnvSource environment variables named PREFIX_SECTION_KEY.
// With explicit keys "enforcer.max_purge_per_owner" reads
// PREFIX_ENFORCER_MAX_PURGE_PER_OWNER; without keys every PREFIX_ variable is
// mapped by turning underscores into dots.
type EnvSource struct {
	prefix   string
	priority int
	keys     []string
}

// NewEnvSource creates an environment source
func NewEnvSource(prefix string, priority int, keys ...string) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority, keys: keys}
}

func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

func (s *EnvSource) Priority() int {
	return s.priority
}

// EnvName variable name of key
func (s *EnvSource) EnvName(key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if s.prefix == "" {
		return name
	}
	return s.prefix + "_" + name
}

// Load reads the set variables
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.keys) > 0 {
		for _, key := range s.keys {
			if value, ok := os.LookupEnv(s.EnvName(key)); ok && value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}
	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], prefix))
		result[strings.ReplaceAll(key, "_", ".")] = parts[1]
	}
	return result, nil
}
