package time

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// RealTimeProvider reads the wall clock
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider
func NewRealTimeProvider() core.TimeProvider {
	return RealTimeProvider{}
}

// Now returns the current time
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t
func (RealTimeProvider) Since(t time.Time) core.Duration {
	return core.Duration(time.Since(t))
}

// Sleep blocks for d unless ctx is done first
func (RealTimeProvider) Sleep(ctx context.Context, d core.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d.Std())
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
