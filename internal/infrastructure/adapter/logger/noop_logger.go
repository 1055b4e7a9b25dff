package logger

import (
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// NoopLogger discards every entry, used by tests and tools that only need the interface
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() core.Logger {
	return NoopLogger{}
}

func (NoopLogger) SetLevel(core.LogLevel) {}
func (NoopLogger) Enabled(core.LogLevel) bool { return false }
func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any) {}
func (NoopLogger) Warn(string, map[string]any) {}
func (NoopLogger) Error(string, map[string]any) {}
func (NoopLogger) Flush() error { return nil }
