package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected core.LogLevel
	}{
		{"debug", core.LogLevelDebug},
		{"DEBUG", core.LogLevelDebug},
		{"info", core.LogLevelInfo},
		{"warn", core.LogLevelWarn},
		{"warning", core.LogLevelWarn},
		{"error", core.LogLevelError},
		{"", core.LogLevelInfo},
		{"verbose", core.LogLevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestZapLoggerSetLevel(t *testing.T) {
	l, err := NewZapLogger(Options{Level: "warn", Service: "payments"})
	require.NoError(t, err)
	assert.True(t, l.Enabled(core.LogLevelWarn))
	assert.False(t, l.Enabled(core.LogLevelInfo))

	l.SetLevel(core.LogLevelDebug)
	assert.True(t, l.Enabled(core.LogLevelDebug))

	l.Debug("debug entry", map[string]any{"txn_id": "PP1"})
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.SetLevel(core.LogLevelDebug)
	assert.False(t, l.Enabled(core.LogLevelError))
	l.Error("ignored", nil)
	assert.NoError(t, l.Flush())
}

func TestZapLoggerWrite(t *testing.T) {
	atom := zap.NewAtomicLevelAt(zap.InfoLevel)
	observed, logs := observer.New(atom)
	l := newZapLoggerWithCore(observed, atom)

	l.Debug("dropped", map[string]any{"txn_id": "PP1"})
	l.Warn("Notification rejected", map[string]any{
		"txn_id": "PP1",
		"error":  errors.New("order id mismatch"),
		"amount": "50.00",
	})

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "Notification rejected", entries[0].Message)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)

	keys := make([]string, 0, len(entries[0].Context))
	for _, f := range entries[0].Context {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"amount", "error", "txn_id"}, keys)
	assert.Equal(t, "order id mismatch", entries[0].ContextMap()["error"])

	l.SetLevel(core.LogLevelDebug)
	l.Debug("kept", nil)
	assert.Equal(t, 1, logs.FilterMessage("kept").Len())
}
