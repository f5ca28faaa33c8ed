package model

// InvoiceCounter is a durable per-account counter row. One row exists per
// account and period key (a calendar day for invoice numbering, a calendar
// month for quota tracking). Increments are single conditional UPDATE
// statements, so two concurrent invoice creations can never observe the same
// value.
type InvoiceCounter struct {
	AccountID uint   `gorm:"primaryKey;autoIncrement:false"`
	Period    string `gorm:"primaryKey;type:varchar(16)"`
	Count     int    `gorm:"not null;default:0"`
}
