package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// LockRepository serializes reconciliations with transaction scoped postgres advisory locks
type LockRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewLockRepository creates a new LockRepository instance bound to db
func NewLockRepository(db *gorm.DB, logger coreport.Logger) *LockRepository {
	return &LockRepository{
		db:     db,
		logger: logger,
	}
}

// LockTransaction blocks until the advisory lock of txnID is held.
// The lock is released by postgres when the surrounding transaction ends.
func (r *LockRepository) LockTransaction(ctx context.Context, txnID string) error {
	r.logger.Debug("Acquiring transaction lock", map[string]any{
		"txn_id": txnID,
	})

	err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", txnID).Error
	if err != nil {
		if isContextError(err) {
			r.logger.Warn("Context ended while waiting for transaction lock", map[string]any{
				"txn_id": txnID,
				"error":  err.Error(),
			})
			return fmt.Errorf("lock acquisition for %s interrupted: %w", txnID, databaseError(err))
		}

		r.logger.Error("Database error acquiring transaction lock", map[string]any{
			"txn_id": txnID,
			"error":  err.Error(),
		})
		return databaseError(err)
	}
	return nil
}
