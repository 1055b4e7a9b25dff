package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/model"
)

// TransactionRepository implements TransactionRepository interface using GORM
type TransactionRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(transaction *entity.Transaction) (model.Transaction, error) {
	extraData, err := marshalJSON(transaction.ExtraData)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("encode extra data: %w", err)
	}

	return model.Transaction{
		ID:              transaction.ID,
		InvestorID:      transaction.InvestorID,
		ReceiverID:      transaction.ReceiverID,
		ProjectID:       transaction.ProjectID,
		RewardID:        transaction.RewardID,
		ServiceProvider: transaction.ServiceProvider,
		ServiceAlias:    transaction.ServiceAlias,
		TxnID:           transaction.TxnID,
		TxnAmount:       transaction.TxnAmount,
		TxnCurrency:     transaction.TxnCurrency,
		TxnStatus:       string(transaction.TxnStatus),
		TxnDate:         transaction.TxnDate,
		ExtraData:       extraData,
		CreatedAt:       transaction.CreatedAt,
		UpdatedAt:       transaction.UpdatedAt,
	}, nil
}

// modelToEntity converts a transaction model to an entity
func (r *TransactionRepository) modelToEntity(m *model.Transaction) (*entity.Transaction, error) {
	var extraData map[string]any
	if len(m.ExtraData) > 0 {
		if err := json.Unmarshal(m.ExtraData, &extraData); err != nil {
			return nil, fmt.Errorf("decode extra data of %s: %w", m.TxnID, err)
		}
	}

	return &entity.Transaction{
		ID:              m.ID,
		InvestorID:      m.InvestorID,
		ReceiverID:      m.ReceiverID,
		ProjectID:       m.ProjectID,
		RewardID:        m.RewardID,
		ServiceProvider: m.ServiceProvider,
		ServiceAlias:    m.ServiceAlias,
		TxnID:           m.TxnID,
		TxnAmount:       m.TxnAmount,
		TxnCurrency:     m.TxnCurrency,
		TxnStatus:       entity.TransactionStatus(m.TxnStatus),
		TxnDate:         m.TxnDate,
		ExtraData:       extraData,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// Create saves a new transaction and assigns its internal ID
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Creating transaction", map[string]any{
		"txn_id":     transaction.TxnID,
		"project_id": transaction.ProjectID,
		"status":     transaction.TxnStatus,
	})

	transactionModel, err := r.entityToModel(transaction)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			r.logger.Warn("Duplicate transaction detected", map[string]any{
				"txn_id": transaction.TxnID,
			})
			return fmt.Errorf("%w: %s", errs.ErrDuplicateTransaction, transaction.TxnID)
		}

		r.logger.Error("Failed to create transaction", map[string]any{
			"txn_id": transaction.TxnID,
			"error":  result.Error.Error(),
		})
		return databaseError(result.Error)
	}

	transaction.ID = transactionModel.ID
	transaction.CreatedAt = transactionModel.CreatedAt
	transaction.UpdatedAt = transactionModel.UpdatedAt

	r.logger.Info("Transaction created successfully", map[string]any{
		"txn_id": transaction.TxnID,
		"id":     transaction.ID,
		"status": transaction.TxnStatus,
	})
	return nil
}

// Update overwrites an existing transaction identified by its internal ID
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Updating transaction", map[string]any{
		"txn_id": transaction.TxnID,
		"status": transaction.TxnStatus,
	})

	transactionModel, err := r.entityToModel(transaction)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND txn_id = ?", transaction.ID, transaction.TxnID).
		Updates(map[string]interface{}{
			"investor_id":      transactionModel.InvestorID,
			"receiver_id":      transactionModel.ReceiverID,
			"project_id":       transactionModel.ProjectID,
			"reward_id":        transactionModel.RewardID,
			"service_provider": transactionModel.ServiceProvider,
			"service_alias":    transactionModel.ServiceAlias,
			"txn_amount":       transactionModel.TxnAmount,
			"txn_currency":     transactionModel.TxnCurrency,
			"txn_status":       transactionModel.TxnStatus,
			"txn_date":         transactionModel.TxnDate,
			"extra_data":       transactionModel.ExtraData,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction", map[string]any{
			"txn_id": transaction.TxnID,
			"error":  result.Error.Error(),
		})
		return databaseError(result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warn("Transaction not found during update", map[string]any{
			"txn_id": transaction.TxnID,
			"id":     transaction.ID,
		})
		return errs.ErrTransactionNotFound
	}

	r.logger.Debug("Transaction updated successfully", map[string]any{
		"txn_id": transaction.TxnID,
		"status": transaction.TxnStatus,
	})
	return nil
}

// GetByTxnID retrieves a transaction by its merchant order id
func (r *TransactionRepository) GetByTxnID(ctx context.Context, txnID string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).
		Where("txn_id = ?", txnID).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			r.logger.Debug("Transaction not found", map[string]any{
				"txn_id": txnID,
			})
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", map[string]any{
			"txn_id": txnID,
			"error":  result.Error.Error(),
		})
		return nil, databaseError(result.Error)
	}

	return r.modelToEntity(&transactionModel)
}

// marshalJSON encodes v into a JSON column, nil maps become SQL NULL
func marshalJSON[T any](v map[string]T) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
