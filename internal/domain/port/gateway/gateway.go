package gateway

import (
	"context"
)

// StatusClient queries the authoritative payment status from the gateway
type StatusClient interface {
	// FetchStatus returns the raw status reported for the order and tracking id
	//
	// Possible errors:
	// - ErrNotConfigured: If consumer key or secret is missing
	// - ErrGatewayTransport: If the request could not be completed
	// - ErrGatewayResponse: If the response carries no status
	FetchStatus(ctx context.Context, orderID, trackingID string) (string, error)
}

// Order is the payment order presented to the gateway checkout page
type Order struct {
	Amount      string
	Currency    string
	Description string
	Reference   string
	FirstName   string
	LastName    string
	Email       string
}

// CheckoutSigner builds signed checkout page URLs
type CheckoutSigner interface {
	// Configured returns false when consumer key or secret is missing
	Configured() bool

	// CheckoutURL returns the signed URL of the gateway page that collects the payment
	CheckoutURL(order Order, callbackURL string) (string, error)
}
