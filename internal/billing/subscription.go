// Package billing owns the subscription state of an account: starter,
// active-paid, and expired-paid. Paid state is entered by Upgrade and left
// only through lazy expiry at authorization time; there is no background
// sweep. A lapsed subscription keeps its plan and any over-limit seats or
// invoices (soft degradation, no automatic downgrade to starter).
package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
)

// SubscriptionDays is the paid window granted per upgrade or renewal.
const SubscriptionDays = 30

// ErrInvalidPlan is returned for plan ids outside the paid tiers.
var ErrInvalidPlan = errors.New("invalid plan")

// ErrAccountNotFound is returned when there is no account to upgrade.
var ErrAccountNotFound = gorm.ErrRecordNotFound

// Upgrade transitions an account to a paid plan: sets the plan, refreshes the
// cached seat limit from the catalog, marks the payment verified, and opens a
// fresh 30-day subscription window from now. Calling it again renews: the
// window restarts at the renewal time rather than extending the old expiry.
func Upgrade(db *gorm.DB, accountID uint, planID string, now time.Time) (*model.Account, error) {
	if !plan.IsPaid(planID) {
		return nil, ErrInvalidPlan
	}
	p, err := plan.ByID(planID)
	if err != nil {
		return nil, ErrInvalidPlan
	}

	var account model.Account
	if err := db.First(&account, accountID).Error; err != nil {
		return nil, err
	}

	start := now
	end := now.AddDate(0, 0, SubscriptionDays)

	account.Plan = p.ID
	account.UserLimit = p.UserLimit
	account.IsPaymentVerified = true
	account.SubscriptionStart = &start
	account.SubscriptionEnd = &end

	if err := db.Save(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ExpireIfLapsed flips is_payment_verified to false when a paid account's
// subscription window has passed. The flip is one conditional UPDATE guarded
// by the stored flag, so calling it twice persists at most one write; the
// second call is a no-op. Starter accounts never expire. The returned bool
// reports whether this call performed the flip.
func ExpireIfLapsed(db *gorm.DB, account *model.Account, now time.Time) (bool, error) {
	if !plan.IsPaid(account.Plan) {
		return false, nil
	}
	if account.SubscriptionEnd == nil || account.SubscriptionEnd.After(now) {
		return false, nil
	}
	if !account.IsPaymentVerified {
		return false, nil
	}

	res := db.Model(&model.Account{}).
		Where("id = ? AND is_payment_verified = ? AND subscription_end <= ?",
			account.ID, true, now).
		UpdateColumn("is_payment_verified", false)
	if res.Error != nil {
		return false, res.Error
	}

	// A concurrent request may have flipped it first; either way the
	// effective state for this request is unverified.
	account.IsPaymentVerified = false
	return res.RowsAffected > 0, nil
}
