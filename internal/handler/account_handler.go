package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/billing"
	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/quota"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// UpgradePlan transitions the caller's account to a paid plan (owner only,
// enforced at the route). Renewals go through the same path and restart the
// subscription window.
func UpgradePlan(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	account, err := billing.Upgrade(database.GetDB(), auth.AccountID, req.Plan, time.Now())
	if err == billing.ErrInvalidPlan {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan"})
	}
	if err != nil {
		log.Error("Failed to upgrade plan", zap.Error(err), zap.Uint("account_id", auth.AccountID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upgrade plan"})
	}

	prometheus.RecordPlanUpgrade(account.Plan)
	log.Info("Plan upgraded",
		zap.Uint("account_id", account.ID),
		zap.String("plan", account.Plan),
		zap.Int("user_limit", account.UserLimit))

	return c.JSON(http.StatusOK, echo.Map{
		"message":          "plan upgraded successfully",
		"plan":             account.Plan,
		"user_limit":       account.UserLimit,
		"subscription_end": account.SubscriptionEnd,
	})
}

// GetAccountUsage reports seats and monthly invoices used against the plan's
// limits.
func GetAccountUsage(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	db := database.GetDB()

	used, limit, err := quota.SeatUsage(db, auth.AccountID, auth.Plan)
	if err != nil {
		log.Error("Failed to count seats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch usage"})
	}

	invoicesUsed, err := quota.InvoiceUsage(db, auth.AccountID, time.Now())
	if err != nil {
		log.Error("Failed to read invoice usage", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch usage"})
	}

	remaining := int64(limit) - used
	if remaining < 0 {
		remaining = 0
	}

	return c.JSON(http.StatusOK, echo.Map{
		"plan":            auth.Plan.ID,
		"user_limit":      limit,
		"users_used":      used,
		"users_remaining": remaining,
		"invoice_limit":   auth.Plan.InvoiceLimit,
		"invoices_used":   invoicesUsed,
	})
}

// UpdateAccountSettings updates the account's invoice branding and payment
// display fields (owner only, customBranding plans).
func UpdateAccountSettings(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		InvoicePrefix *string `json:"invoice_prefix"`
		UpiID         *string `json:"upi_id"`
		UpiQrImage    *string `json:"upi_qr_image"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.InvoicePrefix != nil {
		updates["invoice_prefix"] = *req.InvoicePrefix
	}
	if req.UpiID != nil {
		updates["upi_id"] = *req.UpiID
	}
	if req.UpiQrImage != nil {
		updates["upi_qr_image"] = *req.UpiQrImage
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	res := database.GetDB().Model(&model.Account{}).
		Where("id = ?", auth.AccountID).
		Updates(updates)
	if res.Error != nil {
		log.Error("Failed to update account settings", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update settings"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "settings updated"})
}
