package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
)

// CheckoutRequest represents a backer starting a payment
type CheckoutRequest struct {
	SessionID   string
	ProjectID   uint64
	RewardID    uint64
	Amount      decimal.Decimal
	Anonymous   bool
	UserID      uint64
	FirstName   string
	LastName    string
	Email       string
	CallbackURL string
}

// CheckoutResult contains the data needed to render the gateway iframe
type CheckoutResult struct {
	SessionID string
	OrderID   string
	Amount    string
	Currency  string
	IframeURL string
}

// CallbackRequest represents the browser returning from the gateway
type CallbackRequest struct {
	SessionID  string
	ProjectID  uint64
	OrderID    string
	TrackingID string
}

// CallbackResult tells the browser where to go after checkout
type CallbackResult struct {
	RedirectURL string
	Correlated  bool
}

// NotificationRequest represents an instant payment notification from the gateway
type NotificationRequest struct {
	Type              string
	TrackingID        string
	MerchantReference string
}

// PaymentUseCase defines the payment operations exposed to transport adapters
type PaymentUseCase interface {
	// PreparePayment creates the order and returns the signed gateway page
	PreparePayment(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)

	// CompleteCheckout correlates the gateway tracking id with the payment session
	CompleteCheckout(ctx context.Context, req CallbackRequest) (*CallbackResult, error)

	// HandleNotification verifies a notification and reconciles the transaction
	// Errors are classified by errs.KindOf; rejected and terminal notifications must still be acknowledged.
	HandleNotification(ctx context.Context, req NotificationRequest) (*entity.PaymentResult, error)

	// GetTransaction returns a transaction by its merchant order id
	GetTransaction(ctx context.Context, txnID string) (*entity.Transaction, error)
}
