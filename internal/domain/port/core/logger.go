package core

// LogLevel represents logging severity levels
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger writes structured entries; fields are attached as key/value pairs
type Logger interface {
	// SetLevel sets the minimum level written
	SetLevel(level LogLevel)
	// Enabled reports whether entries at level would be written
	Enabled(level LogLevel) bool
	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Warn(message string, fields map[string]any)
	Error(message string, fields map[string]any)
	// Flush writes any buffered entries
	Flush() error
}
