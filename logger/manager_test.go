package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_WritesModuleFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{
		BaseLogDir:            dir,
		Level:                 "info",
		Encoding:              "json",
		EnableFile:            true,
		EnableLevelInFilename: true,
		EnableTraceID:         true,
	})

	m.GetLogger("enforcer").InfoCtx(WithTraceID(context.Background(), "t-1"), "run finished", zap.Int("purged", 3))
	m.GetLogger("throttle").Error("store failed")
	m.CloseAll()

	content, err := os.ReadFile(filepath.Join(dir, "enforcer", "enforcer-info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "run finished")
	assert.Contains(t, string(content), `"trace_id":"t-1"`)
	assert.Contains(t, string(content), `"module":"enforcer"`)

	assert.FileExists(t, filepath.Join(dir, "throttle", "throttle-error.log"))
}

func TestManager_GetLoggerIsCached(t *testing.T) {
	m := NewManager(ManagerConfig{EnableConsole: false})
	assert.Same(t, m.GetLogger("quota"), m.GetLogger("quota"))
	assert.Equal(t, "quota", m.GetLogger("quota").Module())
}

func TestManagerConfig_Validate(t *testing.T) {
	cfg := DefaultManagerConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultManagerConfig()
	cfg.Encoding = "console_pretty"
	assert.Error(t, cfg.Validate())
}

func TestManagerConfig_ApplyDefaults(t *testing.T) {
	var cfg ManagerConfig
	cfg.ApplyDefaults()

	assert.Equal(t, "logs", cfg.BaseLogDir)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, "trace_id", cfg.TraceIDFieldName)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("debug").String())
	assert.Equal(t, "info", ParseLevel("bogus").String())
	assert.Equal(t, "error", ParseLevel("error").String())
}

func TestSanitizeSQL(t *testing.T) {
	out := sanitizeSQL("UPDATE users SET password = 'hunter2' WHERE id = 1")
	assert.Equal(t, "UPDATE users SET password = '***' WHERE id = 1", out)
}
