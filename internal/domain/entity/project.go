package entity

import (
	"github.com/shopspring/decimal"
)

// Project represents a crowdfunding campaign that receives payments
type Project struct {
	ID        uint64
	UserID    uint64 // Owner and receiver of the funds
	Title     string
	Slug      string
	CatSlug   string
	Goal      decimal.Decimal
	Funded    decimal.Decimal
	Published bool
}

// IsValid returns true when the project can accept payments
func (p *Project) IsValid() bool {
	return p != nil && p.ID > 0 && p.Published
}

// Reward represents a perk a backer can claim for a project
type Reward struct {
	ID          uint64
	ProjectID   uint64
	Title       string
	Amount      decimal.Decimal
	Number      uint32 // Stock, zero means unlimited
	Distributed uint32
	Available   uint32
	Published   bool
}

// IsLimited returns true when the reward has a finite stock
func (r *Reward) IsLimited() bool {
	return r.Number > 0
}

// BelongsTo reports whether the reward is published for the given project
func (r *Reward) BelongsTo(projectID uint64) bool {
	return r != nil && r.ProjectID == projectID && r.Published
}

// PaymentResult is handed back to the platform once a notification was reconciled
type PaymentResult struct {
	Project         *Project
	Reward          *Reward
	Transaction     *Transaction
	PaymentSession  *PaymentSession
	ServiceProvider string
	ServiceAlias    string
}
