package entity

import (
	"time"
)

// Keys of the gateway fields stashed on a payment session at checkout
const (
	ProviderDataAmount   = "pesapal.amount"
	ProviderDataCurrency = "pesapal.currency_code"
)

// PaymentSession holds the payer identity of one checkout attempt until the gateway reports back
type PaymentSession struct {
	ID           string            // Session identifier stored in the browser cookie
	OrderID      string            // Merchant order id generated at checkout
	UniqueKey    string            // Gateway tracking id, set by the return callback
	UserID       uint64            // Payer, zero for guests
	ProjectID    uint64            // Funded project
	RewardID     uint64            // Selected reward, zero when none
	Anonymous    bool              // Payer asked to stay anonymous
	ProviderData map[string]string // Gateway fields stashed at checkout
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetData returns a stashed provider field or an empty string
func (s *PaymentSession) GetData(key string) string {
	if s.ProviderData == nil {
		return ""
	}
	return s.ProviderData[key]
}

// SetData stashes a provider field on the session
func (s *PaymentSession) SetData(key, value string) {
	if s.ProviderData == nil {
		s.ProviderData = make(map[string]string)
	}
	s.ProviderData[key] = value
}

// MatchesOrder reports whether orderID is the order generated for this session
func (s *PaymentSession) MatchesOrder(orderID string) bool {
	return s.OrderID != "" && s.OrderID == orderID
}

// AcceptsTrackingID reports whether the gateway tracking id may belong to this session
// A session without a stored tracking id accepts any, since the notification can beat the return callback.
func (s *PaymentSession) AcceptsTrackingID(trackingID string) bool {
	return s.UniqueKey == "" || s.UniqueKey == trackingID
}

// EffectiveRewardID returns the reward to record; anonymous payments never claim one
func (s *PaymentSession) EffectiveRewardID() uint64 {
	if s.Anonymous {
		return 0
	}
	return s.RewardID
}
