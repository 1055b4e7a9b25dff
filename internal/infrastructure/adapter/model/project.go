package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project represents the database model for crowdfunding projects
type Project struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	UserID    uint64          `gorm:"not null;index"`
	Title     string          `gorm:"not null;size:255"`
	Slug      string          `gorm:"not null;size:255"`
	CatSlug   string          `gorm:"size:255"`
	Goal      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Funded    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Published bool            `gorm:"not null;default:false"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`

	Rewards []Reward `gorm:"foreignKey:ProjectID;references:ID"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// Reward represents the database model for project rewards
type Reward struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	ProjectID   uint64          `gorm:"not null;index"`
	Title       string          `gorm:"not null;size:255"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Number      uint32          `gorm:"not null;default:0"`
	Distributed uint32          `gorm:"not null;default:0"`
	Available   uint32          `gorm:"not null;default:0"`
	Published   bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Reward
func (Reward) TableName() string {
	return "rewards"
}
