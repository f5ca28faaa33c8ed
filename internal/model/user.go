package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles within an account. Exactly one owner per account, created at
// registration; members are added by the owner within the plan's seat limit.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// User represents an authenticated person belonging to an account
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Email string `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	// Mobile is nullable so members created without one do not collide on
	// the unique index.
	Mobile   *string `json:"mobile,omitempty" gorm:"type:varchar(20);uniqueIndex"`
	Password string `json:"-" gorm:"type:varchar(255);not null"`

	Name      string `json:"name" gorm:"type:varchar(100)"`
	Role      string `json:"role" gorm:"type:varchar(20);not null;default:'owner'"`
	AccountID uint   `json:"account_id" gorm:"index;not null"`

	// Profile
	Phone     string `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Company   string `json:"company,omitempty" gorm:"type:varchar(100)"`
	Website   string `json:"website,omitempty" gorm:"type:varchar(200)"`
	GstNumber string `json:"gst_number,omitempty" gorm:"type:varchar(30)"`
	Address   string `json:"address,omitempty" gorm:"type:text"`
	Country   string `json:"country,omitempty" gorm:"type:varchar(50)"`
	State     string `json:"state,omitempty" gorm:"type:varchar(50)"`
	City      string `json:"city,omitempty" gorm:"type:varchar(50)"`
	Zip       string `json:"zip,omitempty" gorm:"type:varchar(15)"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
