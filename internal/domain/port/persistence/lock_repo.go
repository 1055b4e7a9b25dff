package persistence

import (
	"context"
)

// LockRepository serializes reconciliations of the same transaction
type LockRepository interface {
	// LockTransaction blocks until the caller holds the lock for txnID
	// The lock is bound to the current unit of work and released by its commit or rollback.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	LockTransaction(ctx context.Context, txnID string) error
}
