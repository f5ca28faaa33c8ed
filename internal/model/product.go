package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a tenant-scoped product with a stock level. Stock is
// only ever mutated through account-scoped conditional updates so it cannot
// go negative or be touched cross-tenant.
type Product struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	AccountID uint    `json:"account_id" gorm:"index;not null"`
	Name      string  `json:"name" gorm:"type:varchar(100);not null"`
	Rate      float64 `json:"rate" gorm:"not null"`
	Unit      string  `json:"unit" gorm:"type:varchar(20);default:'pcs'"`
	Stock     int     `json:"stock" gorm:"default:0"`
	IsActive  bool    `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
