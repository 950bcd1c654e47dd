package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestCtxLogger records entries in memory for assertions in unit tests
//
//	testLogger := logger.NewTestCtxLogger()
//	engine := history.NewEngine(store, resolver, testLogger)
//	assert.True(t, testLogger.HasLog("INFO", "Execution history purged"))
type TestCtxLogger struct {
	store  *logStore
	fields []zap.Field
}

type logStore struct {
	mu   sync.RWMutex
	logs []LogEntry
}

// LogEntry one captured entry
type LogEntry struct {
	Level   string
	Message string
	TraceID string
	Fields  map[string]interface{}
}

var _ Logger = (*TestCtxLogger)(nil)

// NewTestCtxLogger creates an in-memory logger
func NewTestCtxLogger() *TestCtxLogger {
	return &TestCtxLogger{store: &logStore{}}
}

func (t *TestCtxLogger) record(ctx context.Context, level, msg string, fields []zap.Field) {
	all := make([]zap.Field, 0, len(t.fields)+len(fields))
	all = append(all, t.fields...)
	all = append(all, fields...)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.logs = append(t.store.logs, LogEntry{
		Level:   level,
		Message: msg,
		TraceID: TraceIDFromContext(ctx),
		Fields:  extractFieldsMap(all),
	})
}

// InfoCtx records an INFO entry
func (t *TestCtxLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "INFO", msg, fields)
}

// ErrorCtx records an ERROR entry
func (t *TestCtxLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "ERROR", msg, fields)
}

// DebugCtx records a DEBUG entry
func (t *TestCtxLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "DEBUG", msg, fields)
}

// WarnCtx records a WARN entry
func (t *TestCtxLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "WARN", msg, fields)
}

// With returns a logger sharing the same store with preset fields
func (t *TestCtxLogger) With(fields ...zap.Field) *TestCtxLogger {
	preset := make([]zap.Field, 0, len(t.fields)+len(fields))
	preset = append(preset, t.fields...)
	preset = append(preset, fields...)
	return &TestCtxLogger{store: t.store, fields: preset}
}

// HasLog reports whether an entry with level and message exists
func (t *TestCtxLogger) HasLog(level, message string) bool {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for _, log := range t.store.logs {
		if log.Level == level && log.Message == message {
			return true
		}
	}
	return false
}

// HasLogWithField reports whether an entry carries fieldKey=fieldValue
func (t *TestCtxLogger) HasLogWithField(level, message, fieldKey string, fieldValue interface{}) bool {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for _, log := range t.store.logs {
		if log.Level == level && log.Message == message {
			if val, ok := log.Fields[fieldKey]; ok && val == fieldValue {
				return true
			}
		}
	}
	return false
}

// CountLogs counts entries at level
func (t *TestCtxLogger) CountLogs(level string) int {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	count := 0
	for _, log := range t.store.logs {
		if log.Level == level {
			count++
		}
	}
	return count
}

// Logs returns a copy of every entry
func (t *TestCtxLogger) Logs() []LogEntry {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	logs := make([]LogEntry, len(t.store.logs))
	copy(logs, t.store.logs)
	return logs
}

// Clear drops every entry
func (t *TestCtxLogger) Clear() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.logs = nil
}

func extractFieldsMap(fields []zap.Field) map[string]interface{} {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return enc.Fields
}
