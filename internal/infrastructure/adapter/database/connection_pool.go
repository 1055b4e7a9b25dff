package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// poolPressureRatio is the share of open connections in use above which the pool is reported
const poolPressureRatio = 0.8

// ConnectionPoolMetrics is a snapshot of the database connection pool
type ConnectionPoolMetrics struct {
	OpenConnections    int
	IdleConnections    int
	MaxOpenConnections int
	InUse              int
	WaitCount          int64
	WaitDuration       time.Duration
	// NewWaits counts requests that queued for a connection since the previous snapshot
	NewWaits int64
}

// Exhausted reports whether every connection is in use and callers are queueing
func (m ConnectionPoolMetrics) Exhausted() bool {
	return m.MaxOpenConnections > 0 && m.InUse >= m.MaxOpenConnections && m.NewWaits > 0
}

// statsSource yields the pool statistics of a connection
type statsSource func() (sql.DBStats, error)

// ConnectionPoolMonitor polls pool statistics and warns when notification bursts exhaust the pool.
// Every reconciliation holds a connection for as long as it holds the order lock.
type ConnectionPoolMonitor struct {
	stats    statsSource
	logger   coreport.Logger
	mu       sync.RWMutex
	latest   ConnectionPoolMetrics
	stop     chan struct{}
	stopOnce sync.Once
}

// NewConnectionPoolMonitor creates a monitor for the manager's connection
func NewConnectionPoolMonitor(db *Manager, logger coreport.Logger) *ConnectionPoolMonitor {
	return newConnectionPoolMonitor(func() (sql.DBStats, error) {
		sqlDB, err := db.DB().DB()
		if err != nil {
			return sql.DBStats{}, fmt.Errorf("failed to get database connection: %w", err)
		}
		return sqlDB.Stats(), nil
	}, logger)
}

func newConnectionPoolMonitor(stats statsSource, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		stats:  stats,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Start takes a first snapshot and keeps polling every interval until Stop
func (m *ConnectionPoolMonitor) Start(interval time.Duration) error {
	if err := m.poll(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.poll(); err != nil {
					m.logger.Error("Failed to collect connection pool metrics", map[string]any{
						"error": err.Error(),
					})
				}
			case <-m.stop:
				return
			}
		}
	}()

	return nil
}

// Stop ends polling, calling it twice is safe
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// GetMetrics returns the latest snapshot
func (m *ConnectionPoolMonitor) GetMetrics() ConnectionPoolMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *ConnectionPoolMonitor) poll() error {
	stats, err := m.stats()
	if err != nil {
		return err
	}

	m.mu.Lock()
	snapshot := ConnectionPoolMetrics{
		OpenConnections:    stats.OpenConnections,
		IdleConnections:    stats.Idle,
		MaxOpenConnections: stats.MaxOpenConnections,
		InUse:              stats.InUse,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
		NewWaits:           stats.WaitCount - m.latest.WaitCount,
	}
	m.latest = snapshot
	m.mu.Unlock()

	saturated := stats.MaxOpenConnections > 0 &&
		float64(stats.InUse) > float64(stats.MaxOpenConnections)*poolPressureRatio
	if saturated || snapshot.NewWaits > 0 {
		m.logger.Warn("Database connection pool under pressure", map[string]any{
			"in_use":    stats.InUse,
			"max_open":  stats.MaxOpenConnections,
			"idle":      stats.Idle,
			"new_waits": snapshot.NewWaits,
			"wait_time": stats.WaitDuration.String(),
		})
	}

	return nil
}
