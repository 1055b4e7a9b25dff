package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/model"
)

// PaymentSessionRepository implements PaymentSessionRepository interface using GORM
// Sessions untouched for longer than ttl are treated as missing; a zero ttl keeps them forever.
type PaymentSessionRepository struct {
	db           *gorm.DB
	ttl          time.Duration
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewPaymentSessionRepository creates a new PaymentSessionRepository instance
func NewPaymentSessionRepository(db *gorm.DB, ttl time.Duration, timeProvider coreport.TimeProvider, logger coreport.Logger) *PaymentSessionRepository {
	return &PaymentSessionRepository{
		db:           db,
		ttl:          ttl,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

func sessionToModel(session *entity.PaymentSession) (model.PaymentSession, error) {
	providerData, err := marshalJSON(session.ProviderData)
	if err != nil {
		return model.PaymentSession{}, fmt.Errorf("encode provider data: %w", err)
	}

	return model.PaymentSession{
		ID:           session.ID,
		OrderID:      session.OrderID,
		UniqueKey:    session.UniqueKey,
		UserID:       session.UserID,
		ProjectID:    session.ProjectID,
		RewardID:     session.RewardID,
		Anonymous:    session.Anonymous,
		ProviderData: providerData,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}, nil
}

func sessionToEntity(m *model.PaymentSession) (*entity.PaymentSession, error) {
	var providerData map[string]string
	if len(m.ProviderData) > 0 {
		if err := json.Unmarshal(m.ProviderData, &providerData); err != nil {
			return nil, fmt.Errorf("decode provider data of session %s: %w", m.ID, err)
		}
	}

	return &entity.PaymentSession{
		ID:           m.ID,
		OrderID:      m.OrderID,
		UniqueKey:    m.UniqueKey,
		UserID:       m.UserID,
		ProjectID:    m.ProjectID,
		RewardID:     m.RewardID,
		Anonymous:    m.Anonymous,
		ProviderData: providerData,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// scope restricts queries to sessions that have not expired
func (r *PaymentSessionRepository) scope(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.ttl > 0 {
		db = db.Where("updated_at > ?", r.timeProvider.Now().Add(-r.ttl))
	}
	return db
}

// Create stores a new session and assigns its ID when empty
func (r *PaymentSessionRepository) Create(ctx context.Context, session *entity.PaymentSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := r.timeProvider.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	sessionModel, err := sessionToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&sessionModel).Error; err != nil {
		r.logger.Error("Failed to create payment session", map[string]any{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return databaseError(err)
	}
	return nil
}

// GetByID retrieves a session by the ID kept in the browser cookie
func (r *PaymentSessionRepository) GetByID(ctx context.Context, id string) (*entity.PaymentSession, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByOrderID retrieves the most recent session carrying the merchant order id
func (r *PaymentSessionRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.PaymentSession, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *PaymentSessionRepository) first(ctx context.Context, query string, arg string) (*entity.PaymentSession, error) {
	if arg == "" {
		return nil, errs.ErrSessionNotFound
	}

	var sessionModel model.PaymentSession
	err := r.scope(ctx).Where(query, arg).Order("updated_at DESC").First(&sessionModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		r.logger.Error("Failed to get payment session", map[string]any{
			"lookup": arg,
			"error":  err.Error(),
		})
		return nil, databaseError(err)
	}
	return sessionToEntity(&sessionModel)
}

// Update overwrites a stored session
func (r *PaymentSessionRepository) Update(ctx context.Context, session *entity.PaymentSession) error {
	session.UpdatedAt = r.timeProvider.Now()

	sessionModel, err := sessionToModel(session)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"order_id":      sessionModel.OrderID,
			"unique_key":    sessionModel.UniqueKey,
			"user_id":       sessionModel.UserID,
			"project_id":    sessionModel.ProjectID,
			"reward_id":     sessionModel.RewardID,
			"anonymous":     sessionModel.Anonymous,
			"provider_data": sessionModel.ProviderData,
			"updated_at":    sessionModel.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Error("Failed to update payment session", map[string]any{
			"session_id": session.ID,
			"error":      result.Error.Error(),
		})
		return databaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session, deleting a missing session is not an error
func (r *PaymentSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PaymentSession{}).Error; err != nil {
		r.logger.Error("Failed to delete payment session", map[string]any{
			"session_id": id,
			"error":      err.Error(),
		})
		return databaseError(err)
	}
	return nil
}

// DeleteExpired removes sessions older than the ttl and returns how many were removed
func (r *PaymentSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("updated_at <= ?", r.timeProvider.Now().Add(-r.ttl)).
		Delete(&model.PaymentSession{})
	if result.Error != nil {
		return 0, databaseError(result.Error)
	}
	return result.RowsAffected, nil
}
