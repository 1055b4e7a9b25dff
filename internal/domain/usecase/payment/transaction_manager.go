package payment

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

// Transition describes the status change written for a transaction
type Transition struct {
	Old     entity.TransactionStatus // Empty when the transaction was created
	New     entity.TransactionStatus
	Created bool
}

// EntersCompleted reports whether this write moves the transaction into the completed state
func (t Transition) EntersCompleted() bool {
	return t.New.IsCompleted() && !t.Old.IsCompleted()
}

// Handler applies a side effect of a transaction write inside the same unit of work
type Handler interface {
	// Name identifies the handler in logs and errors
	Name() string
	// Handle runs after the transaction row was written
	Handle(ctx context.Context, projects persistence.ProjectRepository, txn *entity.Transaction, transition Transition) error
}

// TransactionManager persists a reconciled transaction and runs its side effects in order
type TransactionManager struct {
	uow      persistence.UnitOfWork
	handlers []Handler
	logger   coreport.Logger
}

// NewTransactionManager creates a new transaction manager with the given ordered handlers
func NewTransactionManager(uow persistence.UnitOfWork, logger coreport.Logger, handlers ...Handler) *TransactionManager {
	return &TransactionManager{
		uow:      uow,
		handlers: handlers,
		logger:   logger,
	}
}

// Process writes the transaction and invokes every handler
// ctx must carry the unit of work started by the caller; any error leaves the caller to roll back.
func (m *TransactionManager) Process(ctx context.Context, txn *entity.Transaction, transition Transition) error {
	txnRepo := m.uow.GetTransactionRepository(ctx)

	if transition.Created {
		if err := txnRepo.Create(ctx, txn); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
	} else {
		if err := txnRepo.Update(ctx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
	}

	projects := m.uow.GetProjectRepository(ctx)
	for _, handler := range m.handlers {
		if err := handler.Handle(ctx, projects, txn, transition); err != nil {
			return fmt.Errorf("handler %s failed: %w", handler.Name(), err)
		}
	}

	m.logger.Debug("Transaction written", map[string]any{
		"txn_id":     txn.TxnID,
		"old_status": string(transition.Old),
		"new_status": string(transition.New),
		"created":    transition.Created,
	})

	return nil
}

// FundingHandler credits the project once a payment completes
type FundingHandler struct {
	logger coreport.Logger
}

// NewFundingHandler creates a new FundingHandler
func NewFundingHandler(logger coreport.Logger) *FundingHandler {
	return &FundingHandler{logger: logger}
}

// Name implements Handler
func (h *FundingHandler) Name() string {
	return "funding"
}

// Handle implements Handler
func (h *FundingHandler) Handle(ctx context.Context, projects persistence.ProjectRepository, txn *entity.Transaction, transition Transition) error {
	if !transition.EntersCompleted() {
		return nil
	}

	if err := projects.IncreaseFunds(ctx, txn.ProjectID, txn.TxnAmount); err != nil {
		return err
	}

	h.logger.Info("Project funds increased", map[string]any{
		"txn_id":     txn.TxnID,
		"project_id": txn.ProjectID,
		"amount":     entity.FormatAmount(txn.TxnAmount),
		"currency":   txn.TxnCurrency,
	})
	return nil
}

// RewardHandler distributes the selected reward once a payment completes
type RewardHandler struct {
	logger coreport.Logger
}

// NewRewardHandler creates a new RewardHandler
func NewRewardHandler(logger coreport.Logger) *RewardHandler {
	return &RewardHandler{logger: logger}
}

// Name implements Handler
func (h *RewardHandler) Name() string {
	return "reward"
}

// Handle implements Handler
func (h *RewardHandler) Handle(ctx context.Context, projects persistence.ProjectRepository, txn *entity.Transaction, transition Transition) error {
	if !transition.EntersCompleted() || txn.RewardID == 0 {
		return nil
	}

	if err := projects.IncreaseRewardDistributed(ctx, txn.RewardID); err != nil {
		return err
	}

	h.logger.Info("Reward distributed", map[string]any{
		"txn_id":    txn.TxnID,
		"reward_id": txn.RewardID,
	})
	return nil
}
