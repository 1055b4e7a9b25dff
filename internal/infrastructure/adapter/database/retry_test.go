package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
	clock "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
		MaxInterval:   time.Second,
	}
}

func newRetryClock() *clock.FixedTimeProvider {
	return clock.NewFixedTimeProvider(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestRetryOnTransientError(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		tp := newRetryClock()
		calls := 0
		err := RetryOnTransientError(context.Background(), fastRetryConfig(), tp, func() error {
			calls++
			if calls < 3 {
				return errors.New("read: connection reset by peer")
			}
			return nil
		}, logger.NewNoopLogger())

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 30*time.Millisecond, tp.Slept())
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		tp := newRetryClock()
		calls := 0
		err := RetryOnTransientError(context.Background(), fastRetryConfig(), tp, func() error {
			calls++
			return &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "idx_transactions_txn_id"`}
		}, logger.NewNoopLogger())

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Zero(t, tp.Slept())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		tp := newRetryClock()
		calls := 0
		err := RetryOnTransientError(context.Background(), fastRetryConfig(), tp, func() error {
			calls++
			return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
		}, logger.NewNoopLogger())

		assert.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 30*time.Millisecond, tp.Slept())
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := RetryOnTransientError(ctx, fastRetryConfig(), newRetryClock(), func() error {
			calls++
			return errors.New("server closed the connection unexpectedly")
		}, logger.NewNoopLogger())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestIsTransientError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"connection exception class", fmt.Errorf("begin: %w", &pgconn.PgError{Code: "08006"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"context canceled", fmt.Errorf("query: %w", context.Canceled), false},
		{"dropped connection text", errors.New("write tcp: broken pipe"), true},
		{"syntax error text", errors.New("syntax error at or near"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isTransientError(tc.err))
		})
	}
}

func TestCalculateBackoffWithJitter(t *testing.T) {
	config := RetryConfig{RetryInterval: 100 * time.Millisecond, MaxInterval: time.Second}

	assert.Equal(t, 100*time.Millisecond, calculateBackoffWithJitter(0, config))
	assert.Equal(t, 400*time.Millisecond, calculateBackoffWithJitter(2, config))
	assert.Equal(t, time.Second, calculateBackoffWithJitter(6, config))

	config.JitterFactor = 0.5
	backoff := calculateBackoffWithJitter(1, config)
	assert.GreaterOrEqual(t, backoff, 200*time.Millisecond)
	assert.LessOrEqual(t, backoff, 300*time.Millisecond)
}
