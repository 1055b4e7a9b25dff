package payment

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
)

const (
	orderIDPrefix   = "PP"
	orderIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	orderIDLength   = 14
)

// GenerateOrderID returns a new merchant order id such as PP1234567890ABCD
func GenerateOrderID() (string, error) {
	id, err := gonanoid.Generate(orderIDAlphabet, orderIDLength)
	if err != nil {
		return "", err
	}
	return orderIDPrefix + id, nil
}

// Correlator binds gateway tracking ids to payment sessions
type Correlator struct{}

// NewCorrelator creates a new Correlator
func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Correlate stores trackingID on the session when orderID is the session's own order
// The session is left untouched on any mismatch.
func (c *Correlator) Correlate(session *entity.PaymentSession, orderID, trackingID string) error {
	if session == nil {
		return errs.ErrSessionNotFound
	}
	if orderID == "" || trackingID == "" {
		return errs.NewRejectionError(orderID, session.ProjectID, "missing order or tracking id", errs.ErrInvalidRequest)
	}
	if !session.MatchesOrder(orderID) {
		return errs.NewRejectionError(orderID, session.ProjectID, "order id does not belong to the session", errs.ErrInvalidOrderID)
	}

	session.UniqueKey = trackingID
	return nil
}

// Match checks that a notification belongs to the session it was resolved to
func (c *Correlator) Match(session *entity.PaymentSession, orderID, trackingID string) error {
	if !session.MatchesOrder(orderID) {
		return errs.NewRejectionError(orderID, session.ProjectID, "order id does not belong to the session", errs.ErrInvalidOrderID)
	}
	if !session.AcceptsTrackingID(trackingID) {
		return errs.NewRejectionError(orderID, session.ProjectID, "tracking id does not belong to the session", errs.ErrInvalidOrderID)
	}
	return nil
}
