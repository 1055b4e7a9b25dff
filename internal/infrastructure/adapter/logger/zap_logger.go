package logger

import (
	"errors"
	"slices"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// Options configures the zap based logger
type Options struct {
	Production bool   // JSON encoder with ISO8601 timestamps when true
	Level      string // debug, info, warn or error
	Service    string // Added to every entry when not empty
}

// ZapLogger implements the Logger interface using Zap
type ZapLogger struct {
	logger *zap.Logger
	atom   zap.AtomicLevel
}

// NewZapLogger creates a new zap-based logger instance
func NewZapLogger(opts Options) (core.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.Production {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(ParseLevel(opts.Level)))

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if opts.Service != "" {
		zapLogger = zapLogger.With(zap.String("service", opts.Service))
	}
	return &ZapLogger{logger: zapLogger, atom: cfg.Level}, nil
}

// newZapLoggerWithCore wraps an existing core, the atomic level must be the one the core filters on
func newZapLoggerWithCore(c zapcore.Core, atom zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{logger: zap.New(c), atom: atom}
}

// ParseLevel converts a configured level name to a LogLevel, defaulting to info
func ParseLevel(level string) core.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return core.LogLevelDebug
	case "warn", "warning":
		return core.LogLevelWarn
	case "error":
		return core.LogLevelError
	default:
		return core.LogLevelInfo
	}
}

func toZapLevel(level core.LogLevel) zapcore.Level {
	switch level {
	case core.LogLevelDebug:
		return zap.DebugLevel
	case core.LogLevelWarn:
		return zap.WarnLevel
	case core.LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level core.LogLevel) {
	l.atom.SetLevel(toZapLevel(level))
}

// Enabled reports whether entries at level pass the atomic level
func (l *ZapLogger) Enabled(level core.LogLevel) bool {
	return l.atom.Enabled(toZapLevel(level))
}

func (l *ZapLogger) Debug(message string, fields map[string]any) {
	l.write(zap.DebugLevel, message, fields)
}

func (l *ZapLogger) Info(message string, fields map[string]any) {
	l.write(zap.InfoLevel, message, fields)
}

func (l *ZapLogger) Warn(message string, fields map[string]any) {
	l.write(zap.WarnLevel, message, fields)
}

func (l *ZapLogger) Error(message string, fields map[string]any) {
	l.write(zap.ErrorLevel, message, fields)
}

// write skips field conversion for disabled levels and emits fields in key order
func (l *ZapLogger) write(level zapcore.Level, message string, fields map[string]any) {
	entry := l.logger.Check(level, message)
	if entry == nil {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	zapFields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			zapFields = append(zapFields, zap.NamedError(k, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(k, fields[k]))
	}
	entry.Write(zapFields...)
}

// Flush writes buffered entries. Terminals and pipes reject fsync, which is not a failure.
func (l *ZapLogger) Flush() error {
	err := l.logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
