package model

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a tenant: the billing and data-isolation boundary.
// Every tenant-scoped table carries an account_id partition key referencing
// this model.
type Account struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	OwnerID uint   `json:"owner_id" gorm:"index;not null"`
	Plan    string `json:"plan" gorm:"type:varchar(20);not null;default:'starter'"`

	// UserLimit is a display denormalization of the plan's seat cap. Quota
	// decisions read the plan catalog, not this field, so a stale value can
	// never widen access. Kept settable for grandfathered accounts.
	UserLimit int `json:"user_limit" gorm:"not null;default:1"`

	Status string `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	// Premium settings
	InvoicePrefix string `json:"invoice_prefix" gorm:"type:varchar(10);default:'INV'"`
	UpiID         string `json:"upi_id" gorm:"type:varchar(100)"`
	UpiQrImage    string `json:"upi_qr_image" gorm:"type:text"`

	SubscriptionStart *time.Time `json:"subscription_start"`
	SubscriptionEnd   *time.Time `json:"subscription_end"`
	IsPaymentVerified bool       `json:"is_payment_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
