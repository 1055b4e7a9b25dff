package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/repository"
)

type txContextKey struct{}

// errNoTransaction is returned by Commit and Rollback outside Begin
var errNoTransaction = errors.New("no transaction found in context")

// readCommitted is enough because reconciliations of one order serialize on the advisory lock
var readCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// UnitOfWork runs reconciliation writes in one postgres transaction carried by the context
type UnitOfWork struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	retryConfig  RetryConfig
	errorMapper  *ErrorMapper
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) persistence.UnitOfWork {
	return &UnitOfWork{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		retryConfig:  DefaultRetryConfig(),
		errorMapper:  NewErrorMapper(),
	}
}

// Begin opens a READ COMMITTED transaction, retrying when the pool hands out a dead connection
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	var tx *gorm.DB
	err := RetryOnTransientError(ctx, u.retryConfig, u.timeProvider, func() error {
		tx = u.db.WithContext(ctx).Begin(readCommitted)
		return tx.Error
	}, u.logger)
	if err != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": err.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", u.errorMapper.MapError(err, "begin"))
	}

	return context.WithValue(ctx, txContextKey{}, tx), nil
}

// Commit commits the transaction opened by Begin
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTransaction
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to commit transaction: %w", u.errorMapper.MapError(err, "commit"))
	}
	return nil
}

// Rollback aborts the transaction opened by Begin. Rolling back a finished transaction is a no-op.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTransaction
	}

	err := tx.Rollback().Error
	switch {
	case err == nil, errors.Is(err, sql.ErrTxDone):
		return nil
	default:
		u.logger.Error("Failed to rollback transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
}

// GetTransactionRepository returns a transaction repository in the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.conn(ctx), u.logger)
}

// GetProjectRepository returns a project repository in the current transaction
func (u *UnitOfWork) GetProjectRepository(ctx context.Context) persistence.ProjectRepository {
	return repository.NewProjectRepository(u.conn(ctx), u.logger)
}

// GetLockRepository returns a lock repository bound to the current transaction
func (u *UnitOfWork) GetLockRepository(ctx context.Context) persistence.LockRepository {
	return repository.NewLockRepository(u.conn(ctx), u.logger)
}

// conn is the open transaction, or the pool outside one
func (u *UnitOfWork) conn(ctx context.Context) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}
