package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus defines possible status values for a transaction
// Gateway specific values are stored as reported, lower cased.
type TransactionStatus string

// TransactionStatus constants
const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"

	// statusInvalid is the gateway alias of StatusFailed
	statusInvalid = "invalid"
)

// Service provider identity recorded on every PesaPal transaction
const (
	ServiceProviderPesaPal = "PesaPal"
	ServiceAliasPesaPal    = "pesapal"
)

// NormalizeStatus lower cases a raw gateway status and maps its aliases to canonical values
func NormalizeStatus(raw string) TransactionStatus {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == statusInvalid {
		return StatusFailed
	}
	return TransactionStatus(status)
}

// IsCompleted returns true for the terminal completed status
func (s TransactionStatus) IsCompleted() bool {
	return s == StatusCompleted
}

// Transaction represents a persisted payment transaction correlated by TxnID
type Transaction struct {
	ID              uint64            // Internal identifier, zero until stored
	InvestorID      uint64            // Backer who paid
	ReceiverID      uint64            // Owner of the funded project
	ProjectID       uint64            // Funded project
	RewardID        uint64            // Selected reward, zero when none
	ServiceProvider string            // Gateway display name
	ServiceAlias    string            // Gateway alias
	TxnID           string            // Merchant order id, unique per transaction
	TxnAmount       decimal.Decimal   // Paid amount
	TxnCurrency     string            // ISO currency code
	TxnStatus       TransactionStatus // Current status
	TxnDate         time.Time         // When the gateway status was recorded
	ExtraData       map[string]any    // Provider specific metadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTransactionFromDraft creates an unsaved transaction carrying the draft fields
func NewTransactionFromDraft(draft *TransactionDraft) *Transaction {
	txn := &Transaction{}
	txn.Bind(draft)
	return txn
}

// IsNew returns true when the transaction has not been stored yet
func (t *Transaction) IsNew() bool {
	return t.ID == 0
}

// IsCompleted returns true when the transaction reached its terminal state
func (t *Transaction) IsCompleted() bool {
	return t.TxnStatus.IsCompleted()
}

// Bind overwrites the transaction fields with the draft values
// The internal ID and timestamps are left untouched. Extra data is merged, never replaced.
func (t *Transaction) Bind(draft *TransactionDraft) {
	t.InvestorID = draft.InvestorID
	t.ReceiverID = draft.ReceiverID
	t.ProjectID = draft.ProjectID
	t.RewardID = draft.RewardID
	t.ServiceProvider = draft.ServiceProvider
	t.ServiceAlias = draft.ServiceAlias
	t.TxnID = draft.TxnID
	t.TxnAmount = draft.TxnAmount
	t.TxnCurrency = draft.TxnCurrency
	t.TxnStatus = draft.TxnStatus
	t.TxnDate = draft.TxnDate
	t.AddExtraData(draft.ExtraData)
}

// AddExtraData merges the given metadata into the existing extra data
func (t *Transaction) AddExtraData(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if t.ExtraData == nil {
		t.ExtraData = make(map[string]any, len(data))
	}
	for key, value := range data {
		t.ExtraData[key] = value
	}
}

// Clone returns a copy safe to mutate without affecting the original
func (t *Transaction) Clone() *Transaction {
	clone := *t
	if t.ExtraData != nil {
		clone.ExtraData = make(map[string]any, len(t.ExtraData))
		for key, value := range t.ExtraData {
			clone.ExtraData[key] = value
		}
	}
	return &clone
}
