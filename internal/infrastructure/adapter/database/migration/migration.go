package migration

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/model"
)

// step is one schema version. A step and its schema_versions row commit together.
type step struct {
	version string
	details string
	apply   func(ctx context.Context, tx *gorm.DB, logger coreport.Logger) error
}

// steps are applied in order; released versions must never be edited, only appended to
var steps = []step{
	{version: "1.0.0", details: "Payment reconciliation tables", apply: createTables},
	{version: "1.1.0", details: "Transaction check constraints", apply: addTransactionConstraints},
	{version: "1.2.0", details: "Reporting indexes and fillfactor", apply: createReportingIndexes},
}

// CurrentSchemaVersion is the version a fully migrated database reports
var CurrentSchemaVersion = steps[len(steps)-1].version

// MigrationManager manages database migrations
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// MigrateAll applies every step newer than the recorded schema version
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&model.MigrationVersion{}); err != nil {
		return fmt.Errorf("create schema version table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := pendingSteps(currentVersion)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.Info("Database schema is up to date", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	m.logger.Info("Starting database migrations", map[string]any{
		"from": currentVersion,
		"to":   CurrentSchemaVersion,
	})

	for _, s := range pending {
		if err := m.applyStep(ctx, s); err != nil {
			m.logger.Error("Database migration failed", map[string]any{
				"version": s.version,
				"error":   err.Error(),
			})
			return fmt.Errorf("migrate to %s: %w", s.version, err)
		}
		m.logger.Info("Applied database migration", map[string]any{
			"version": s.version,
			"details": s.details,
		})
	}

	return nil
}

// GetCurrentVersion returns the last applied version, empty for a new database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	var version model.MigrationVersion
	err := m.db.WithContext(ctx).Order("applied_at desc, id desc").First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version.Version, nil
}

func (m *MigrationManager) applyStep(ctx context.Context, s step) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.apply(ctx, tx, m.logger); err != nil {
			return err
		}
		return tx.Create(&model.MigrationVersion{
			Version:   s.version,
			Details:   s.details,
			AppliedAt: m.timeProvider.Now(),
		}).Error
	})
}

// pendingSteps returns the steps after current. An unknown version means the binary is older than the schema.
func pendingSteps(current string) ([]step, error) {
	if current == "" {
		return steps, nil
	}
	for i, s := range steps {
		if s.version == current {
			return steps[i+1:], nil
		}
	}
	return nil, fmt.Errorf("database schema version %s is unknown to this build (latest %s)", current, CurrentSchemaVersion)
}

// createTables creates the reconciliation tables and the indexes lookups depend on
func createTables(_ context.Context, tx *gorm.DB, logger coreport.Logger) error {
	if err := tx.AutoMigrate(
		&model.Project{},
		&model.Reward{},
		&model.Transaction{},
		&model.PaymentSession{},
	); err != nil {
		return err
	}

	return execAll(tx, logger, []namedStatement{
		// One transaction row per merchant order id
		{"idx_transactions_txn_id", "CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_txn_id ON transactions (txn_id)"},
		{"idx_payment_sessions_order_id", "CREATE INDEX IF NOT EXISTS idx_payment_sessions_order_id ON payment_sessions (order_id)"},
		{"idx_transactions_investor_id", "CREATE INDEX IF NOT EXISTS idx_transactions_investor_id ON transactions (investor_id)"},
		{"idx_rewards_project_id", "CREATE INDEX IF NOT EXISTS idx_rewards_project_id ON rewards (project_id)"},
	})
}

type namedStatement struct {
	name string
	sql  string
}

func execAll(tx *gorm.DB, logger coreport.Logger, statements []namedStatement) error {
	for _, statement := range statements {
		if err := tx.Exec(statement.sql).Error; err != nil {
			logger.Error("Failed to apply schema statement", map[string]any{
				"statement": statement.name,
				"error":     err.Error(),
			})
			return fmt.Errorf("%s: %w", statement.name, err)
		}
	}
	return nil
}
