package model

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses. PENDING is initial; PAID is terminal for dashboard
// aggregation purposes.
const (
	InvoiceStatusPending = "PENDING"
	InvoiceStatusPaid    = "PAID"
)

// Invoice represents a tenant-scoped invoice. InvoiceNo is immutable once
// assigned and unique per account per calendar day.
type Invoice struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	InvoiceNo  string  `json:"invoice_no" gorm:"type:varchar(30);not null;uniqueIndex:idx_invoice_no_account"`
	AccountID  uint    `json:"account_id" gorm:"index;not null;uniqueIndex:idx_invoice_no_account"`
	CustomerID uint    `json:"customer_id" gorm:"index;not null"`
	CreatedBy  uint    `json:"created_by" gorm:"not null"`
	Total      float64 `json:"total" gorm:"not null"`
	Status     string  `json:"status" gorm:"type:varchar(10);not null;default:'PENDING'"`

	Items []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// InvoiceItem is a denormalized snapshot of a product line at invoice time.
// Later product changes never retroactively alter historical invoices.
type InvoiceItem struct {
	ID        uint `json:"-" gorm:"primaryKey"`
	InvoiceID uint `json:"-" gorm:"index;not null"`

	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name" gorm:"type:varchar(100)"`
	Quantity    int     `json:"quantity" gorm:"not null"`
	Rate        float64 `json:"rate" gorm:"not null"`
	Amount      float64 `json:"amount" gorm:"not null"`
}
