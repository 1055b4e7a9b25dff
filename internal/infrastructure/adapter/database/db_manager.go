package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/database/migration"
)

// Manager manages database connections
type Manager struct {
	config            *Config
	db                *gorm.DB
	logger            coreport.Logger
	errorMapper       *ErrorMapper
	migrationMgr      *migration.MigrationManager
	connectionMonitor *ConnectionPoolMonitor
	timeProvider      coreport.TimeProvider
}

// NewManager creates a new database manager
func NewManager(config *Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:       config,
		logger:       logger,
		errorMapper:  NewErrorMapper(),
		timeProvider: timeProvider,
	}
}

// poolMonitorInterval is how often connection pool statistics are sampled
const poolMonitorInterval = 30 * time.Second

var errNotConnected = errors.New("database is not connected")

// Connect establishes a database connection, retrying while postgres starts up
func (m *Manager) Connect(ctx context.Context) (*gorm.DB, error) {
	if m.config.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s", m.config.Driver)
	}

	m.logger.Info("Connecting to database", map[string]any{
		"host": m.config.Host,
		"port": m.config.Port,
		"name": m.config.Database,
	})

	attempts := max(m.config.RetryAttempts, 1)

	var err error
	var gormDB *gorm.DB
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			m.logger.Warn("Retrying database connection", map[string]any{
				"attempt": attempt,
				"of":      attempts,
				"delay":   m.config.RetryDelay.String(),
			})
			if err := m.timeProvider.Sleep(ctx, coreport.Duration(m.config.RetryDelay)); err != nil {
				return nil, fmt.Errorf("database connection interrupted: %w", err)
			}
		}

		if gormDB, err = m.open(ctx); err == nil {
			break
		}
		m.logger.Error("Failed to connect to database", map[string]any{
			"error":   err.Error(),
			"attempt": attempt,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, m.errorMapper.MapError(err, "connect"))
	}

	m.db = gormDB
	m.migrationMgr = migration.NewMigrationManager(m.db, m.logger, m.timeProvider)
	m.connectionMonitor = NewConnectionPoolMonitor(m, m.logger)
	if err := m.connectionMonitor.Start(poolMonitorInterval); err != nil {
		m.logger.Warn("Failed to start connection pool monitoring", map[string]any{"error": err.Error()})
	}

	m.logger.Info("Successfully connected to database", map[string]any{
		"host":           m.config.Host,
		"name":           m.config.Database,
		"max_open_conns": m.config.MaxOpenConns,
		"max_idle_conns": m.config.MaxIdleConns,
		"query_timeout":  m.config.QueryTimeout.String(),
	})
	return m.db, nil
}

// open makes one connection attempt and sizes the pool; a pool that fails its ping is closed
func (m *Manager) open(ctx context.Context) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(m.config.DSN()), &gorm.Config{
		Logger:      NewGormDatabaseLogger(m.logger, m.timeProvider, m.config.LogLevel),
		NowFunc:     m.timeProvider.Now,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	if err := m.ping(ctx, gormDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gormDB, nil
}

// RunMigrations brings the schema to the current version and optionally seeds the demo project
func (m *Manager) RunMigrations(ctx context.Context, seedDemoData bool) error {
	if m.db == nil {
		return errNotConnected
	}

	if err := m.migrationMgr.MigrateAll(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if !seedDemoData {
		return nil
	}

	projects := m.CreateUnitOfWork().GetProjectRepository(ctx)
	if err := migration.SeedDemoData(ctx, projects); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return nil
}

// Ping verifies the database answers within the query timeout
func (m *Manager) Ping(ctx context.Context) error {
	if m.db == nil {
		return errNotConnected
	}
	return m.errorMapper.MapError(m.ping(ctx, m.db), "ping")
}

func (m *Manager) ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := m.WithTimeout(ctx)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	m.logger.Info("Closing database connection", nil)

	if m.connectionMonitor != nil {
		m.connectionMonitor.Stop()
	}
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	return sqlDB.Close()
}

// WithTimeout returns a context with timeout for database operations
func (m *Manager) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.QueryTimeout)
}

// CreateUnitOfWork creates a new UnitOfWork instance
func (m *Manager) CreateUnitOfWork() persistence.UnitOfWork {
	return NewUnitOfWork(m.db, m.logger, m.timeProvider)
}

// PoolMetrics returns the last sampled connection pool metrics
func (m *Manager) PoolMetrics() ConnectionPoolMetrics {
	if m.connectionMonitor == nil {
		return ConnectionPoolMetrics{}
	}
	return m.connectionMonitor.GetMetrics()
}
