package dto

// CheckoutRequest represents the API request of a backer starting a PesaPal payment
type CheckoutRequest struct {
	Amount    string `json:"amount" binding:"required"`
	RewardID  uint64 `json:"rewardId"`
	Anonymous bool   `json:"anonymous"`
	UserID    uint64 `json:"userId"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// CheckoutResponse carries the signed gateway page to embed as an iframe
type CheckoutResponse struct {
	OrderID   string `json:"orderId"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	IframeURL string `json:"iframeUrl"`
}

// NotificationQuery is the query string of a PesaPal instant payment notification
type NotificationQuery struct {
	Type              string `form:"pesapal_notification_type"`
	TrackingID        string `form:"pesapal_transaction_tracking_id"`
	MerchantReference string `form:"pesapal_merchant_reference"`
}

// ReturnQuery is the query string PesaPal appends when redirecting the backer back
type ReturnQuery struct {
	TrackingID        string `form:"pesapal_transaction_tracking_id"`
	MerchantReference string `form:"pesapal_merchant_reference"`
}

// TransactionResponse represents a stored transaction
type TransactionResponse struct {
	TxnID           string         `json:"txnId"`
	InvestorID      uint64         `json:"investorId"`
	ReceiverID      uint64         `json:"receiverId"`
	ProjectID       uint64         `json:"projectId"`
	RewardID        uint64         `json:"rewardId"`
	ServiceProvider string         `json:"serviceProvider"`
	ServiceAlias    string         `json:"serviceAlias"`
	Amount          string         `json:"amount"`
	Currency        string         `json:"currency"`
	Status          string         `json:"status"`
	TxnDate         string         `json:"txnDate"`
	ExtraData       map[string]any `json:"extraData,omitempty"`
}
