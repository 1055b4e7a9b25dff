package time

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

func TestFixedTimeProvider(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := NewFixedTimeProvider(start)

	assert.Equal(t, start, clock.Now())

	require.NoError(t, clock.Sleep(context.Background(), core.Minute))
	assert.Equal(t, start.Add(time.Minute), clock.Now())
	assert.Equal(t, core.Minute, clock.Since(start))

	clock.Advance(time.Hour)
	assert.Equal(t, time.Minute, clock.Slept())
	assert.Equal(t, time.Hour+time.Minute, clock.Since(start).Std())
}

func TestFixedTimeProvider_SleepCanceled(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := NewFixedTimeProvider(start)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, clock.Sleep(ctx, core.Second), context.Canceled)
	assert.Equal(t, start, clock.Now())
}

func TestRealTimeProvider(t *testing.T) {
	clock := NewRealTimeProvider()
	before := time.Now()
	assert.False(t, clock.Now().Before(before))
	assert.True(t, clock.Since(before) >= 0)

	require.NoError(t, clock.Sleep(context.Background(), core.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clock.Sleep(ctx, core.Minute), context.Canceled)
}
