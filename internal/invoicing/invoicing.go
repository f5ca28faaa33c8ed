// Package invoicing generates per-account invoice numbers and performs the
// stock ledger updates tied to invoice creation. Everything runs in one
// transaction: the monthly quota reservation, the stock decrements, the
// sequence claim, and the insert either all commit or all roll back.
package invoicing

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/internal/quota"
)

// NumberPrefix is the fixed invoice number prefix.
const NumberPrefix = "MIA"

// ErrProductNotFound is returned when a line item references a product
// outside the caller's account (absent and cross-tenant are deliberately
// indistinguishable).
var ErrProductNotFound = errors.New("product not found")

// ErrCustomerNotFound is the same for the invoice's customer reference.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrNoItems is returned for an invoice without line items.
var ErrNoItems = errors.New("invoice requires at least one item")

// InsufficientStockError names the product that could not cover the
// requested quantity. No partial decrement survives the rejection.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// LineItem is a requested invoice line.
type LineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// DayKey returns the invoice counter period key for t's calendar day.
func DayKey(t time.Time) string {
	return "d:" + t.Format("020106")
}

// NextNumber claims the next invoice sequence for the account and day inside
// tx and formats it as MIA-DDMMYY-NNN. The claim is an atomic increment of a
// durable counter row, not a count query, so concurrent creations within the
// same second still receive distinct numbers.
func NextNumber(tx *gorm.DB, accountID uint, now time.Time) (string, error) {
	key := DayKey(now)

	if err := ensureCounter(tx, accountID, key); err != nil {
		return "", err
	}

	res := tx.Model(&model.InvoiceCounter{}).
		Where("account_id = ? AND period = ?", accountID, key).
		UpdateColumn("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return "", res.Error
	}

	// The row lock from the increment is held until commit, so the read
	// back cannot observe another transaction's sequence.
	var counter model.InvoiceCounter
	if err := tx.Where("account_id = ? AND period = ?", accountID, key).
		First(&counter).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%03d", NumberPrefix, now.Format("020106"), counter.Count), nil
}

// DecrementStock applies one conditional, account-scoped stock decrement.
// Zero rows affected means the product is missing for this account or the
// remaining stock cannot cover the quantity; the caller's transaction rolls
// back either way.
func DecrementStock(tx *gorm.DB, accountID, productID uint, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND account_id = ? AND stock >= ?", productID, accountID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var product model.Product
		err := tx.Where("id = ? AND account_id = ?", productID, accountID).
			First(&product).Error
		if err != nil {
			return ErrProductNotFound
		}
		return &InsufficientStockError{ProductName: product.Name}
	}
	return nil
}

// Create builds an invoice for the account: reserves the monthly quota,
// validates and decrements stock, claims the next invoice number, and
// inserts the invoice with denormalized item snapshots. Item amounts are
// recomputed as rate times quantity and the total as their sum; a
// client-supplied total is never trusted.
func Create(db *gorm.DB, accountID, userID uint, p plan.Plan, customerID uint, items []LineItem, status string, now time.Time) (*model.Invoice, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if status != model.InvoiceStatusPaid {
		status = model.InvoiceStatusPending
	}

	var invoice *model.Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		var customer model.Customer
		if err := tx.Where("id = ? AND account_id = ?", customerID, accountID).
			First(&customer).Error; err != nil {
			return ErrCustomerNotFound
		}

		if err := quota.ReserveInvoice(tx, accountID, p, now); err != nil {
			return err
		}

		// Validation pass: fetch every referenced product and check its
		// stock against the cumulative requested quantity before touching
		// anything. Catches an invoice that over-asks a product across
		// multiple lines with a precise error.
		products := make(map[uint]*model.Product)
		requested := make(map[uint]int)
		for _, item := range items {
			if item.Quantity <= 0 {
				return fmt.Errorf("invalid quantity %d", item.Quantity)
			}
			if _, ok := products[item.ProductID]; !ok {
				var product model.Product
				if err := tx.Where("id = ? AND account_id = ?", item.ProductID, accountID).
					First(&product).Error; err != nil {
					return ErrProductNotFound
				}
				products[item.ProductID] = &product
			}
			requested[item.ProductID] += item.Quantity
			if requested[item.ProductID] > products[item.ProductID].Stock {
				return &InsufficientStockError{ProductName: products[item.ProductID].Name}
			}
		}

		// Commit pass: conditional decrements. A concurrent creation may
		// have consumed stock since the validation read; the guard in the
		// UPDATE rejects that case and rolls everything back.
		for productID, qty := range requested {
			if err := DecrementStock(tx, accountID, productID, qty); err != nil {
				return err
			}
		}

		number, err := NextNumber(tx, accountID, now)
		if err != nil {
			return err
		}

		inv := model.Invoice{
			InvoiceNo:  number,
			AccountID:  accountID,
			CustomerID: customerID,
			CreatedBy:  userID,
			Status:     status,
		}
		for _, item := range items {
			product := products[item.ProductID]
			amount := product.Rate * float64(item.Quantity)
			inv.Items = append(inv.Items, model.InvoiceItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				Rate:        product.Rate,
				Amount:      amount,
			})
			inv.Total += amount
		}

		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		invoice = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func ensureCounter(tx *gorm.DB, accountID uint, period string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.InvoiceCounter{AccountID: accountID, Period: period}).Error
}
