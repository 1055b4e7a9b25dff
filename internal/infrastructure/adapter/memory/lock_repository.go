package memory

import (
	"context"
	"fmt"
)

// LockRepository implements persistence.LockRepository with per txn ID semaphores
type LockRepository struct {
	store *Store
	tx    *txState
}

// LockTransaction blocks until the unit of work holds the lock for txnID
func (r *LockRepository) LockTransaction(ctx context.Context, txnID string) error {
	if r.tx == nil {
		return fmt.Errorf("lock on %s requires a unit of work", txnID)
	}

	r.tx.mu.Lock()
	_, held := r.tx.held[txnID]
	r.tx.mu.Unlock()
	if held {
		return nil
	}

	lock := r.store.lockFor(txnID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.tx.mu.Lock()
	defer r.tx.mu.Unlock()
	if r.tx.done {
		<-lock
		return fmt.Errorf("transaction has already been committed or rolled back")
	}
	r.tx.held[txnID] = lock
	return nil
}
