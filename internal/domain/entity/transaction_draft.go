package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDraft is a validated candidate transaction that has not been persisted
type TransactionDraft struct {
	InvestorID      uint64            `validate:"-"`
	ReceiverID      uint64            `validate:"-"`
	ProjectID       uint64            `validate:"required"`
	RewardID        uint64            `validate:"-"`
	ServiceProvider string            `validate:"required"`
	ServiceAlias    string            `validate:"required"`
	TxnID           string            `validate:"required"`
	TxnAmount       decimal.Decimal   `validate:"-"`
	TxnCurrency     string            `validate:"required,len=3,uppercase"`
	TxnStatus       TransactionStatus `validate:"required"`
	TxnDate         time.Time         `validate:"required"`
	ExtraData       map[string]any    `validate:"-"`
}

// DraftFromTransaction rebuilds a draft from a stored transaction
// Used when the payment session is gone but the transaction still identifies the payer.
func DraftFromTransaction(txn *Transaction) *TransactionDraft {
	return &TransactionDraft{
		InvestorID:      txn.InvestorID,
		ReceiverID:      txn.ReceiverID,
		ProjectID:       txn.ProjectID,
		RewardID:        txn.RewardID,
		ServiceProvider: txn.ServiceProvider,
		ServiceAlias:    txn.ServiceAlias,
		TxnID:           txn.TxnID,
		TxnAmount:       txn.TxnAmount,
		TxnCurrency:     txn.TxnCurrency,
		TxnStatus:       txn.TxnStatus,
		TxnDate:         txn.TxnDate,
	}
}
