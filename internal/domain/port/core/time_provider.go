package core

import (
	"context"
	"time"
)

// Duration is a domain-specific wrapper around time.Duration
type Duration time.Duration

const (
	Millisecond = Duration(time.Millisecond)
	Second      = Duration(time.Second)
	Minute      = Duration(time.Minute)
)

// Std converts domain Duration to time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TimeProvider is the clock behind transaction dates, session expiry and retry backoff
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) Duration
	// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case
	Sleep(ctx context.Context, d Duration) error
}
