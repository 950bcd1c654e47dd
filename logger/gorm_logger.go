package logger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLModule module name used for every SQL log entry
const SQLModule = "quota_sql"

// GormLogger implements gorm's logger.Interface on top of the module loggers
type GormLogger struct {
	slowThreshold time.Duration
	logLevel      gormlogger.LogLevel
	enableAudit   bool // log every statement at debug level
}

// GormLoggerConfig GORM logger configuration
type GormLoggerConfig struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
	EnableAudit   bool
}

// DefaultGormLoggerConfig 200ms slow threshold, warn level, audit on
func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormlogger.Warn,
		EnableAudit:   true,
	}
}

// NewGormLogger creates a GORM logger
func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		slowThreshold: cfg.SlowThreshold,
		logLevel:      cfg.LogLevel,
		enableAudit:   cfg.EnableAudit,
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Info {
		DebugCtx(ctx, SQLModule, fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Warn {
		WarnCtx(ctx, SQLModule, fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Error {
		ErrorCtx(ctx, SQLModule, fmt.Sprintf(msg, data...))
	}
}

// Trace logs one SQL execution
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sanitizeSQL(sql)),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		// RecordNotFound is ordinary control flow
		if !errors.Is(err, gormlogger.ErrRecordNotFound) {
			ErrorCtx(ctx, SQLModule, "SQL execution failed", append(fields, zap.Error(err))...)
		} else if l.enableAudit {
			DebugCtx(ctx, SQLModule, "SQL executed", fields...)
		}

	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
		if elapsed > l.slowThreshold*2 {
			ErrorCtx(ctx, SQLModule, "Severe slow query", fields...)
		} else {
			WarnCtx(ctx, SQLModule, "Slow query", fields...)
		}

	case l.enableAudit:
		DebugCtx(ctx, SQLModule, "SQL executed", fields...)
	}
}

var passwordPattern = regexp.MustCompile(`(?i)(password\s*=\s*['"])([^'"]+)(['"])`)

// sanitizeSQL masks password literals
func sanitizeSQL(sql string) string {
	return passwordPattern.ReplaceAllString(sql, `$1***$3`)
}
