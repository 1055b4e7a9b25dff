package memory

import (
	"context"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
)

// TransactionRepository implements persistence.TransactionRepository in memory
type TransactionRepository struct {
	store *Store
	tx    *txState
}

// lookup returns the staged or committed transaction without copying it
func (r *TransactionRepository) lookup(txnID string) (*entity.Transaction, bool) {
	if r.tx != nil {
		r.tx.mu.Lock()
		txn, ok := r.tx.transactions[txnID]
		r.tx.mu.Unlock()
		if ok {
			return txn, true
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	txn, ok := r.store.transactions[txnID]
	return txn, ok
}

// write stages txn in the unit of work or stores it directly without one
func (r *TransactionRepository) write(txn *entity.Transaction) {
	if r.tx != nil {
		r.tx.mu.Lock()
		r.tx.transactions[txn.TxnID] = txn
		r.tx.mu.Unlock()
		return
	}

	r.store.mu.Lock()
	r.store.transactions[txn.TxnID] = txn
	r.store.mu.Unlock()
}

// Create saves a new transaction
func (r *TransactionRepository) Create(_ context.Context, transaction *entity.Transaction) error {
	if _, exists := r.lookup(transaction.TxnID); exists {
		return errs.ErrDuplicateTransaction
	}

	r.store.mu.Lock()
	r.store.nextTxnID++
	transaction.ID = r.store.nextTxnID
	r.store.mu.Unlock()

	now := r.store.timeProvider.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	r.write(transaction.Clone())
	return nil
}

// Update overwrites an existing transaction
func (r *TransactionRepository) Update(_ context.Context, transaction *entity.Transaction) error {
	existing, ok := r.lookup(transaction.TxnID)
	if !ok || existing.ID != transaction.ID {
		return errs.ErrTransactionNotFound
	}

	transaction.CreatedAt = existing.CreatedAt
	transaction.UpdatedAt = r.store.timeProvider.Now()

	r.write(transaction.Clone())
	return nil
}

// GetByTxnID retrieves a transaction by its merchant order id
func (r *TransactionRepository) GetByTxnID(_ context.Context, txnID string) (*entity.Transaction, error) {
	txn, ok := r.lookup(txnID)
	if !ok {
		return nil, errs.ErrTransactionNotFound
	}
	return txn.Clone(), nil
}
