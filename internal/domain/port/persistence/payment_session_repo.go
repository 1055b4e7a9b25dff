package persistence

import (
	"context"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
)

// PaymentSessionRepository stores ephemeral checkout sessions
// Sessions live outside the unit of work; losing one is recoverable.
type PaymentSessionRepository interface {
	// Create stores a new session and assigns its ID when empty
	Create(ctx context.Context, session *entity.PaymentSession) error

	// GetByID retrieves a session by the ID kept in the browser cookie
	//
	// Possible errors:
	// - ErrSessionNotFound: If the session doesn't exist or expired
	GetByID(ctx context.Context, id string) (*entity.PaymentSession, error)

	// GetByOrderID retrieves a session by its merchant order id
	//
	// Possible errors:
	// - ErrSessionNotFound: If no session carries the order id
	GetByOrderID(ctx context.Context, orderID string) (*entity.PaymentSession, error)

	// Update overwrites a stored session
	//
	// Possible errors:
	// - ErrSessionNotFound: If the session doesn't exist
	Update(ctx context.Context, session *entity.PaymentSession) error

	// Delete removes a session, deleting a missing session is not an error
	Delete(ctx context.Context, id string) error
}
