package time

import (
	"context"
	"sync"
	"time"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// FixedTimeProvider returns a controllable clock for tests and replay tools
type FixedTimeProvider struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

// NewFixedTimeProvider creates a clock stopped at now
func NewFixedTimeProvider(now time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: now}
}

// Now returns the current fixed time
func (p *FixedTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Advance moves the clock forward by d
func (p *FixedTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// Since returns the time elapsed since t on the fixed clock
func (p *FixedTimeProvider) Since(t time.Time) core.Duration {
	return core.Duration(p.Now().Sub(t))
}

// Sleep advances the clock instead of blocking
func (p *FixedTimeProvider) Sleep(ctx context.Context, d core.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d.Std())
	p.slept += d.Std()
	return nil
}

// Slept reports the total time spent in Sleep
func (p *FixedTimeProvider) Slept() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slept
}
