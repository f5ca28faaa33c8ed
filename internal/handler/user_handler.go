package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
)

// profileResponse joins the user's own profile with the account's plan and
// premium settings. The invoice PDF renders the issuer from these fields, so
// this is where company, address and GST number get filled in.
func profileResponse(user *model.User, account *model.Account) echo.Map {
	p, err := plan.ByID(account.Plan)
	if err != nil {
		p, _ = plan.ByID(plan.Starter)
	}

	return echo.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,

		"plan":                account.Plan,
		"is_payment_verified": account.IsPaymentVerified,
		"user_limit":          p.UserLimit,
		"invoice_limit":       p.InvoiceLimit,

		"name":       user.Name,
		"phone":      user.Phone,
		"company":    user.Company,
		"website":    user.Website,
		"gst_number": user.GstNumber,
		"address":    user.Address,
		"country":    user.Country,
		"state":      user.State,
		"city":       user.City,
		"zip":        user.Zip,

		"invoice_prefix": account.InvoicePrefix,
		"upi_id":         account.UpiID,
		"upi_qr_image":   account.UpiQrImage,
	}
}

// GetMe returns the logged-in user's profile and plan snapshot
func GetMe(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	db := database.GetDB()

	var user model.User
	if err := db.Where("id = ? AND account_id = ?", auth.UserID, auth.AccountID).
		First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var account model.Account
	if err := db.First(&account, auth.AccountID).Error; err != nil {
		logger.FromEcho(c).Error("User has no account", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, profileResponse(&user, &account))
}

// UpdateMe updates the caller's own profile fields. Role, account, email and
// password are not editable here; password changes go through the security
// handler.
func UpdateMe(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Name      *string `json:"name"`
		Phone     *string `json:"phone"`
		Company   *string `json:"company"`
		Website   *string `json:"website"`
		GstNumber *string `json:"gst_number"`
		Address   *string `json:"address"`
		Country   *string `json:"country"`
		State     *string `json:"state"`
		City      *string `json:"city"`
		Zip       *string `json:"zip"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()

	var user model.User
	if err := db.Where("id = ? AND account_id = ?", auth.UserID, auth.AccountID).
		First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("name", req.Name)
	set("phone", req.Phone)
	set("company", req.Company)
	set("website", req.Website)
	set("gst_number", req.GstNumber)
	set("address", req.Address)
	set("country", req.Country)
	set("state", req.State)
	set("city", req.City)
	set("zip", req.Zip)

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			logger.FromEcho(c).Error("Failed to update profile", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
		}
	}

	var account model.Account
	if err := db.First(&account, auth.AccountID).Error; err != nil {
		logger.FromEcho(c).Error("User has no account", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, profileResponse(&user, &account))
}
