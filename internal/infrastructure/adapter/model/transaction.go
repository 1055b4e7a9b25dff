package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction represents the database model for payment transactions
type Transaction struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	InvestorID      uint64          `gorm:"not null;default:0;index"`
	ReceiverID      uint64          `gorm:"not null;default:0;index"`
	ProjectID       uint64          `gorm:"not null;index"`
	RewardID        uint64          `gorm:"not null;default:0"`
	ServiceProvider string          `gorm:"not null;size:64"`
	ServiceAlias    string          `gorm:"not null;size:32"`
	TxnID           string          `gorm:"uniqueIndex:idx_transactions_txn_id;not null;size:64"`
	TxnAmount       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TxnCurrency     string          `gorm:"not null;size:3"`
	TxnStatus       string          `gorm:"not null;size:16;index"`
	TxnDate         time.Time       `gorm:"not null"`
	ExtraData       datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
