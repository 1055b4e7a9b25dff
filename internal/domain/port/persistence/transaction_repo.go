package persistence

import (
	"context"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
)

// TransactionRepository defines essential methods to interact with transaction data
type TransactionRepository interface {
	// Create saves a new transaction and assigns its internal ID
	//
	// Possible errors:
	// - ErrDuplicateTransaction: If a transaction with the same txn ID already exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// Update overwrites an existing transaction identified by its internal ID
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, transaction *entity.Transaction) error

	// GetByTxnID retrieves a transaction by its merchant order id
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no transaction carries the given txn ID
	// - ErrDatabaseConnection: If database connection fails
	GetByTxnID(ctx context.Context, txnID string) (*entity.Transaction, error)
}
