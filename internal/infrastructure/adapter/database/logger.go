package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// DatabaseLogger routes GORM output through the core logger.
// Statements are rendered only when they failed, ran slow, or debug is enabled.
type DatabaseLogger struct {
	coreLogger    coreport.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
	since         func(time.Time) time.Duration
}

// NewGormDatabaseLogger creates a GORM logger writing through the core logger
func NewGormDatabaseLogger(coreLogger coreport.Logger, timeProvider coreport.TimeProvider, level string) logger.Interface {
	since := time.Since
	if timeProvider != nil {
		since = func(t time.Time) time.Duration { return timeProvider.Since(t).Std() }
	}
	return &DatabaseLogger{
		coreLogger:    coreLogger,
		logLevel:      parseGormLogLevel(level),
		slowThreshold: 200 * time.Millisecond,
		since:         since,
	}
}

func parseGormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

// LogMode sets the log level for the logger
func (l *DatabaseLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// WithSlowThreshold returns a copy reporting statements slower than threshold at warn
func (l *DatabaseLogger) WithSlowThreshold(threshold time.Duration) logger.Interface {
	newLogger := *l
	newLogger.slowThreshold = threshold
	return &newLogger
}

func (l *DatabaseLogger) Info(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Info {
		l.coreLogger.Info(msg, map[string]any{"source": "database", "data": data})
	}
}

func (l *DatabaseLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Warn {
		l.coreLogger.Warn(msg, map[string]any{"source": "database", "data": data})
	}
}

func (l *DatabaseLogger) Error(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Error {
		l.coreLogger.Error(msg, map[string]any{"source": "database", "data": data})
	}
}

// Trace logs one executed statement. Missing rows are a normal lookup outcome, not a failure.
func (l *DatabaseLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := l.since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold
	if !failed && !slow && !l.coreLogger.Enabled(coreport.LogLevelDebug) {
		return
	}

	sql, rows := fc()
	fields := map[string]any{
		"elapsed": elapsed.String(),
		"rows":    rows,
		"sql":     sql,
		"source":  "database",
	}
	verb, table := describeStatement(sql)
	if verb != "" {
		fields["type"] = verb
	}
	if table != "" {
		fields["table"] = table
	}
	if failed {
		fields["error"] = err.Error()
	}

	switch {
	case failed && l.logLevel >= logger.Error:
		l.coreLogger.Error("SQL Error", fields)
	case slow && l.logLevel >= logger.Warn:
		l.coreLogger.Warn("Slow SQL Query", fields)
	case l.logLevel >= logger.Info:
		l.coreLogger.Debug("SQL Query", fields)
	}
}

// describeStatement returns the DML verb and the first table named after FROM, INTO or UPDATE
func describeStatement(sql string) (verb, table string) {
	tokens := strings.Fields(sql)
	if len(tokens) == 0 {
		return "", ""
	}

	switch first := strings.ToUpper(tokens[0]); first {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		verb = first
	}

	for i, token := range tokens[:len(tokens)-1] {
		keyword := strings.ToUpper(token)
		if keyword == "FROM" || keyword == "INTO" || (i == 0 && keyword == "UPDATE") {
			return verb, strings.Trim(tokens[i+1], `"`)
		}
	}
	return verb, ""
}
