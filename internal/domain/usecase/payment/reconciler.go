package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

// Reconciliation is the committed result of applying a draft
type Reconciliation struct {
	Transaction *entity.Transaction
	Transition  Transition
}

// Reconciler decides how a draft changes the stored transaction and commits it atomically
//
// States per txn ID are absent, pending, completed and failed. A completed
// transaction is terminal; every other state is overwritten by the incoming draft.
type Reconciler struct {
	uow     persistence.UnitOfWork
	manager *TransactionManager
	logger  coreport.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(uow persistence.UnitOfWork, manager *TransactionManager, logger coreport.Logger) *Reconciler {
	return &Reconciler{
		uow:     uow,
		manager: manager,
		logger:  logger,
	}
}

// Reconcile applies draft to the transaction with the same txn ID
//
// Possible errors:
// - ErrTransactionCompleted: the stored transaction is terminal, nothing was written
// - ErrTransactionProcess: the unit of work was rolled back
func (r *Reconciler) Reconcile(ctx context.Context, draft *entity.TransactionDraft) (*Reconciliation, error) {
	txCtx, err := r.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin unit of work: %w", errs.ErrTransactionProcess, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := r.uow.Rollback(txCtx); rbErr != nil {
			r.logger.Error("Failed to roll back reconciliation", map[string]any{
				"txn_id": draft.TxnID,
				"error":  rbErr.Error(),
			})
		}
	}()

	// Serializes concurrent deliveries so the second one reads the first one's commit
	if err := r.uow.GetLockRepository(txCtx).LockTransaction(txCtx, draft.TxnID); err != nil {
		return nil, errs.NewTransactionError(draft.TxnID, "", string(draft.TxnStatus),
			entity.FormatAmount(draft.TxnAmount), "failed to lock transaction", err)
	}

	txn, err := r.uow.GetTransactionRepository(txCtx).GetByTxnID(txCtx, draft.TxnID)
	switch {
	case errors.Is(err, errs.ErrTransactionNotFound):
		txn = nil
	case err != nil:
		return nil, errs.NewTransactionError(draft.TxnID, "", string(draft.TxnStatus),
			entity.FormatAmount(draft.TxnAmount), "failed to load transaction", err)
	}

	if txn != nil && txn.IsCompleted() {
		return nil, fmt.Errorf("txn %s: %w", draft.TxnID, errs.ErrTransactionCompleted)
	}

	transition := Transition{New: draft.TxnStatus}
	if txn == nil {
		transition.Created = true
		txn = entity.NewTransactionFromDraft(draft)
	} else {
		transition.Old = txn.TxnStatus
		txn.Bind(draft)
	}

	if err := r.manager.Process(txCtx, txn, transition); err != nil {
		return nil, errs.NewTransactionError(draft.TxnID, string(transition.Old), string(transition.New),
			entity.FormatAmount(draft.TxnAmount), "failed to process transaction", err)
	}

	// A failed commit ends the unit of work as well
	committed = true
	if err := r.uow.Commit(txCtx); err != nil {
		return nil, errs.NewTransactionError(draft.TxnID, string(transition.Old), string(transition.New),
			entity.FormatAmount(draft.TxnAmount), "failed to commit transaction", err)
	}

	return &Reconciliation{
		Transaction: txn,
		Transition:  transition,
	}, nil
}
