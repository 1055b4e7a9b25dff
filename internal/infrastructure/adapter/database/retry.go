package database

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // 0.0-1.0 of the backoff added at random
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 100 * time.Millisecond,
		MaxInterval:   2 * time.Second,
		JitterFactor:  0.2,
	}
}

// retryableSQLStates are postgres error codes worth another attempt
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

// RetryOnTransientError runs operation until it succeeds, fails permanently or MaxRetries is reached
func RetryOnTransientError(
	ctx context.Context,
	config RetryConfig,
	timeProvider coreport.TimeProvider,
	operation func() error,
	logger coreport.Logger,
) error {
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		if !isTransientError(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		backoff := calculateBackoffWithJitter(attempt, config)
		logger.Warn("Transient database error, retrying operation", map[string]any{
			"attempt":     attempt + 1,
			"max_retries": attempts,
			"error":       err.Error(),
			"retry_after": backoff.String(),
		})

		if sleepErr := timeProvider.Sleep(ctx, coreport.Duration(backoff)); sleepErr != nil {
			logger.Warn("Retry operation canceled by context", map[string]any{
				"attempts": attempt + 1,
				"error":    sleepErr.Error(),
			})
			return sleepErr
		}
	}

	logger.Error("All retry attempts failed", map[string]any{
		"attempts": attempts,
		"error":    err.Error(),
	})
	return err
}

// calculateBackoffWithJitter doubles RetryInterval per attempt up to MaxInterval, then adds jitter
func calculateBackoffWithJitter(attempt int, config RetryConfig) time.Duration {
	backoff := config.RetryInterval << uint(attempt)
	if backoff <= 0 || backoff > config.MaxInterval {
		backoff = config.MaxInterval
	}

	if config.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * config.JitterFactor * rand.Float64())
	}
	return backoff
}

// isTransientError reports whether err is a lock conflict or a dropped connection
func isTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableSQLStates[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}

	errMsg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"deadlock",
		"could not serialize",
		"connection reset",
		"connection refused",
		"broken pipe",
		"server closed",
		"too many connections",
		"unexpected eof",
	} {
		if strings.Contains(errMsg, fragment) {
			return true
		}
	}
	return false
}
