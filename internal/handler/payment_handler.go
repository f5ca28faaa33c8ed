package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/billing"
	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/jwtutil"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// VerifyPayment is the trusted subscription payment callback: it upgrades
// the user's account to the paid plan and re-issues a session cookie so the
// client is logged in with the new plan immediately. No gateway signature is
// checked here.
func VerifyPayment(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email string `json:"email"`
		Plan  string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Plan == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and plan are required"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := database.GetDB()

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	account, err := billing.Upgrade(db, user.AccountID, req.Plan, time.Now())
	if err == billing.ErrInvalidPlan {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan"})
	}
	if err != nil {
		log.Error("Failed to verify payment", zap.Error(err), zap.String("email", email))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment verification failed"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Error("Failed to generate token after payment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment verification failed"})
	}
	setSessionCookie(c, token)

	prometheus.RecordPlanUpgrade(account.Plan)
	log.Info("Payment verified",
		zap.Uint("account_id", account.ID),
		zap.String("plan", account.Plan))

	return c.JSON(http.StatusOK, echo.Map{
		"message":          "payment successful",
		"plan":             account.Plan,
		"user_limit":       account.UserLimit,
		"subscription_end": account.SubscriptionEnd,
	})
}

// CreatePayment records a settlement against an invoice. At most one payment
// may exist per invoice.
func CreatePayment(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		InvoiceID uint     `json:"invoice_id"`
		Method    string   `json:"method"`
		Provider  string   `json:"provider"`
		Amount    *float64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.InvoiceID == 0 || req.Method == "" || req.Amount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice_id, method, and amount are required"})
	}

	db := database.GetDB()

	var invoice model.Invoice
	if err := db.Where("id = ? AND account_id = ?", req.InvoiceID, auth.AccountID).
		First(&invoice).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	var existing model.Payment
	if err := db.Where("invoice_id = ?", req.InvoiceID).First(&existing).Error; err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment already exists for this invoice"})
	}

	payment := model.Payment{
		InvoiceID: req.InvoiceID,
		AccountID: auth.AccountID,
		CreatedBy: auth.UserID,
		Method:    req.Method,
		Provider:  req.Provider,
		Amount:    *req.Amount,
		PaidAt:    time.Now(),
	}

	// The unique index on invoice_id is the real guard; a concurrent
	// duplicate loses here and maps to the same conflict response.
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&payment).Error; err != nil {
		log.Warn("Failed to create payment", zap.Error(err), zap.Uint("invoice_id", req.InvoiceID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment already exists for this invoice"})
	}

	return c.JSON(http.StatusCreated, payment)
}

// GetPaymentByInvoice returns the payment for one of the account's invoices
func GetPaymentByInvoice(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	invoiceID, err := strconv.ParseUint(c.Param("invoiceId"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	var payment model.Payment
	if err := database.GetDB().
		Where("invoice_id = ? AND account_id = ?", invoiceID, auth.AccountID).
		First(&payment).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	}

	return c.JSON(http.StatusOK, payment)
}

// DeletePayment removes a payment record of the caller's account. The delete
// is physical: the unique index on invoice_id would otherwise keep blocking
// a corrected payment for the same invoice.
func DeletePayment(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}

	res := database.GetDB().Unscoped().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		Delete(&model.Payment{})
	if res.Error != nil {
		logger.FromEcho(c).Error("Failed to delete payment", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete payment"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "payment deleted successfully"})
}
