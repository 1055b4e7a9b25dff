package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// DefaultKeyPrefix namespaces every key written by the redis store
const DefaultKeyPrefix = "cp:payment_session:"

// RedisStore implements persistence.PaymentSessionRepository on redis.
// Every session is one JSON value with an order id index key, both expire after ttl.
type RedisStore struct {
	client       redis.UniversalClient
	prefix       string
	ttl          time.Duration
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewRedisStore creates a RedisStore, an empty prefix falls back to DefaultKeyPrefix
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration, timeProvider coreport.TimeProvider, logger coreport.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client:       client,
		prefix:       prefix,
		ttl:          ttl,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// storedSession is the JSON document kept under a session key
type storedSession struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"order_id,omitempty"`
	UniqueKey    string            `json:"unique_key,omitempty"`
	UserID       uint64            `json:"user_id"`
	ProjectID    uint64            `json:"project_id"`
	RewardID     uint64            `json:"reward_id"`
	Anonymous    bool              `json:"anonymous"`
	ProviderData map[string]string `json:"provider_data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func encodeSession(session *entity.PaymentSession) ([]byte, error) {
	return json.Marshal(storedSession{
		ID:           session.ID,
		OrderID:      session.OrderID,
		UniqueKey:    session.UniqueKey,
		UserID:       session.UserID,
		ProjectID:    session.ProjectID,
		RewardID:     session.RewardID,
		Anonymous:    session.Anonymous,
		ProviderData: session.ProviderData,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	})
}

func decodeSession(raw []byte) (*entity.PaymentSession, error) {
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &entity.PaymentSession{
		ID:           stored.ID,
		OrderID:      stored.OrderID,
		UniqueKey:    stored.UniqueKey,
		UserID:       stored.UserID,
		ProjectID:    stored.ProjectID,
		RewardID:     stored.RewardID,
		Anonymous:    stored.Anonymous,
		ProviderData: stored.ProviderData,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    stored.UpdatedAt,
	}, nil
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "id:" + id
}

func (s *RedisStore) orderKey(orderID string) string {
	return s.prefix + "order:" + orderID
}

func (s *RedisStore) storageError(operation string, err error) error {
	s.logger.Error("Payment session store failure", map[string]any{
		"operation": operation,
		"error":     err.Error(),
	})
	return fmt.Errorf("%w: redis %s: %s", errs.ErrDatabaseConnection, operation, err.Error())
}

// save writes the session and its order index in one transaction
func (s *RedisStore) save(ctx context.Context, session *entity.PaymentSession, staleOrderID string) error {
	raw, err := encodeSession(session)
	if err != nil {
		return fmt.Errorf("encode payment session %s: %w", session.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.ID), raw, s.ttl)
		if session.OrderID != "" {
			pipe.Set(ctx, s.orderKey(session.OrderID), session.ID, s.ttl)
		}
		if staleOrderID != "" && staleOrderID != session.OrderID {
			pipe.Del(ctx, s.orderKey(staleOrderID))
		}
		return nil
	})
	if err != nil {
		return s.storageError("save", err)
	}
	return nil
}

// Create stores a new session and assigns its ID when empty
func (s *RedisStore) Create(ctx context.Context, session *entity.PaymentSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := s.timeProvider.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	return s.save(ctx, session, "")
}

// GetByID retrieves a session by the ID kept in the browser cookie
func (s *RedisStore) GetByID(ctx context.Context, id string) (*entity.PaymentSession, error) {
	if id == "" {
		return nil, errs.ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, s.storageError("get", err)
	}

	session, err := decodeSession(raw)
	if err != nil {
		return nil, fmt.Errorf("decode payment session %s: %w", id, err)
	}
	return session, nil
}

// GetByOrderID retrieves a session by its merchant order id
func (s *RedisStore) GetByOrderID(ctx context.Context, orderID string) (*entity.PaymentSession, error) {
	if orderID == "" {
		return nil, errs.ErrSessionNotFound
	}

	id, err := s.client.Get(ctx, s.orderKey(orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, s.storageError("get order index", err)
	}
	return s.GetByID(ctx, id)
}

// Update overwrites a stored session and refreshes its expiry
func (s *RedisStore) Update(ctx context.Context, session *entity.PaymentSession) error {
	existing, err := s.GetByID(ctx, session.ID)
	if err != nil {
		return err
	}

	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = s.timeProvider.Now()
	return s.save(ctx, session, existing.OrderID)
}

// Delete removes a session and its order index
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	keys := []string{s.sessionKey(id)}
	if existing.OrderID != "" {
		keys = append(keys, s.orderKey(existing.OrderID))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return s.storageError("delete", err)
	}
	return nil
}
