// Package quota enforces per-plan resource ceilings. Every check-then-act
// sequence here runs either inside a transaction that holds the account row
// write lock, or as a single conditional UPDATE, so concurrent requests for
// the same account cannot overshoot a limit.
package quota

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
)

// SeatLimitError is returned when an account has used all seats of its plan.
type SeatLimitError struct {
	Limit int
}

func (e *SeatLimitError) Error() string {
	return fmt.Sprintf("user limit of %d reached, upgrade plan", e.Limit)
}

// InvoiceLimitError is returned when an account has used its monthly invoice
// allowance.
type InvoiceLimitError struct {
	Limit int
}

func (e *InvoiceLimitError) Error() string {
	return fmt.Sprintf("monthly invoice limit of %d reached, upgrade plan", e.Limit)
}

// ErrAccountNotFound is returned when the quota subject account is missing.
var ErrAccountNotFound = gorm.ErrRecordNotFound

// MonthKey returns the invoice counter period key for t's calendar month.
// The key rolls over at the first moment of the next month, which is what
// resets the quota.
func MonthKey(t time.Time) string {
	return "m:" + t.Format("2006-01")
}

// LockAccount takes the account row write lock inside tx. Concurrent
// transactions touching the same account serialize on this, which makes the
// following count-then-insert safe. The touched column is the display
// denormalization timestamp, not anything quota decisions read.
func LockAccount(tx *gorm.DB, accountID uint) error {
	res := tx.Model(&model.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AddMember creates a member user for the account, denying the insert when
// the plan's seat limit is already used. The count and the insert share one
// transaction holding the account row lock, so N concurrent calls against a
// plan with limit L admit at most L users total.
func AddMember(db *gorm.DB, accountID uint, p plan.Plan, member *model.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := LockAccount(tx, accountID); err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&model.User{}).
			Where("account_id = ?", accountID).
			Count(&used).Error; err != nil {
			return err
		}

		if used >= int64(p.UserLimit) {
			return &SeatLimitError{Limit: p.UserLimit}
		}

		member.AccountID = accountID
		member.Role = model.RoleMember
		return tx.Create(member).Error
	})
}

// SeatUsage returns the current seat count and the plan's seat limit.
func SeatUsage(db *gorm.DB, accountID uint, p plan.Plan) (int64, int, error) {
	var used int64
	err := db.Model(&model.User{}).
		Where("account_id = ?", accountID).
		Count(&used).Error
	return used, p.UserLimit, err
}

// ReserveInvoice atomically claims one unit of the account's monthly invoice
// allowance inside tx. For capped plans the increment is conditional on the
// current count being below the limit; zero rows affected means the
// allowance is used up. Unlimited plans still increment so usage stays
// observable.
func ReserveInvoice(tx *gorm.DB, accountID uint, p plan.Plan, now time.Time) error {
	key := MonthKey(now)

	if err := ensureCounter(tx, accountID, key); err != nil {
		return err
	}

	inc := tx.Model(&model.InvoiceCounter{}).
		Where("account_id = ? AND period = ?", accountID, key)
	if p.HasInvoiceLimit() {
		inc = inc.Where("count < ?", p.InvoiceLimit)
	}

	res := inc.UpdateColumn("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &InvoiceLimitError{Limit: p.InvoiceLimit}
	}
	return nil
}

// InvoiceUsage returns the number of invoices created this month.
func InvoiceUsage(db *gorm.DB, accountID uint, now time.Time) (int, error) {
	var counter model.InvoiceCounter
	err := db.Where("account_id = ? AND period = ?", accountID, MonthKey(now)).
		First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	return counter.Count, err
}

func ensureCounter(tx *gorm.DB, accountID uint, period string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.InvoiceCounter{AccountID: accountID, Period: period}).Error
}
