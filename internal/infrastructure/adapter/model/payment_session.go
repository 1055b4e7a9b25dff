package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentSession represents the database model for checkout sessions
type PaymentSession struct {
	ID           string         `gorm:"primaryKey;size:36"`
	OrderID      string         `gorm:"size:32;index:idx_payment_sessions_order_id"`
	UniqueKey    string         `gorm:"size:64"`
	UserID       uint64         `gorm:"not null;default:0"`
	ProjectID    uint64         `gorm:"not null;index"`
	RewardID     uint64         `gorm:"not null;default:0"`
	Anonymous    bool           `gorm:"not null;default:false"`
	ProviderData datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null;index"`
}

// TableName specifies the table name for PaymentSession
func (PaymentSession) TableName() string {
	return "payment_sessions"
}
