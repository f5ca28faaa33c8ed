package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a tenant-scoped customer record. Customers are soft
// deleted so invoices keep their referential history.
type Customer struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AccountID uint   `json:"account_id" gorm:"index;not null"`
	Name      string `json:"name" gorm:"type:varchar(100);not null"`
	Phone     string `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Email     string `json:"email,omitempty" gorm:"type:varchar(100)"`
	Address   string `json:"address,omitempty" gorm:"type:text"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
