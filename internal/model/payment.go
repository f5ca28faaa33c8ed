package model

import (
	"time"

	"gorm.io/gorm"
)

// Payment records a settlement against an invoice. The unique index on
// invoice_id enforces at most one payment per invoice at the store level.
type Payment struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	InvoiceID uint `json:"invoice_id" gorm:"uniqueIndex;not null"`
	AccountID uint `json:"account_id" gorm:"index;not null"`
	CreatedBy uint `json:"created_by" gorm:"not null"`

	Method   string  `json:"method" gorm:"type:varchar(30);not null"`
	Provider string  `json:"provider,omitempty" gorm:"type:varchar(50)"`
	Amount   float64 `json:"amount" gorm:"not null"`
	PaidAt   time.Time `json:"paid_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
