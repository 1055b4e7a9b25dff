package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// SessionRepository implements persistence.PaymentSessionRepository in memory
// Sessions older than the TTL are treated as missing; a zero TTL keeps them forever.
type SessionRepository struct {
	mu           sync.RWMutex
	sessions     map[string]*entity.PaymentSession
	byOrder      map[string]string
	ttl          time.Duration
	timeProvider coreport.TimeProvider
}

// NewSessionRepository creates an empty SessionRepository
func NewSessionRepository(ttl time.Duration, timeProvider coreport.TimeProvider) *SessionRepository {
	return &SessionRepository{
		sessions:     make(map[string]*entity.PaymentSession),
		byOrder:      make(map[string]string),
		ttl:          ttl,
		timeProvider: timeProvider,
	}
}

func cloneSession(session *entity.PaymentSession) *entity.PaymentSession {
	clone := *session
	if session.ProviderData != nil {
		clone.ProviderData = make(map[string]string, len(session.ProviderData))
		for key, value := range session.ProviderData {
			clone.ProviderData[key] = value
		}
	}
	return &clone
}

func (r *SessionRepository) expired(session *entity.PaymentSession) bool {
	return r.ttl > 0 && r.timeProvider.Since(session.UpdatedAt).Std() > r.ttl
}

// Create stores a new session and assigns its ID when empty
func (r *SessionRepository) Create(_ context.Context, session *entity.PaymentSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := r.timeProvider.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = cloneSession(session)
	if session.OrderID != "" {
		r.byOrder[session.OrderID] = session.ID
	}
	return nil
}

// GetByID retrieves a session by its ID
func (r *SessionRepository) GetByID(_ context.Context, id string) (*entity.PaymentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || r.expired(session) {
		return nil, errs.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// GetByOrderID retrieves a session by its merchant order id
func (r *SessionRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.PaymentSession, error) {
	r.mu.RLock()
	id, ok := r.byOrder[orderID]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	return r.GetByID(ctx, id)
}

// Update overwrites a stored session
func (r *SessionRepository) Update(_ context.Context, session *entity.PaymentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[session.ID]
	if !ok {
		return errs.ErrSessionNotFound
	}
	if existing.OrderID != session.OrderID {
		delete(r.byOrder, existing.OrderID)
	}

	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = r.timeProvider.Now()
	r.sessions[session.ID] = cloneSession(session)
	if session.OrderID != "" {
		r.byOrder[session.OrderID] = session.ID
	}
	return nil
}

// Delete removes a session
func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		delete(r.byOrder, session.OrderID)
		delete(r.sessions, id)
	}
	return nil
}
