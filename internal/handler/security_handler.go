package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password and replaces it
func ChangePassword(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request payload"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current and new password are required"})
	}
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password must be at least 6 characters"})
	}

	db := database.GetDB()

	var user model.User
	if err := db.First(&user, auth.UserID).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.FromEcho(c).Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	if err := db.Model(&user).UpdateColumn("password", string(hashed)).Error; err != nil {
		logger.FromEcho(c).Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// DeleteAccount removes the calling user. An owner deletes the whole tenant:
// every user, customer, product, invoice, payment and counter goes with the
// account in one transaction. A member only deletes themselves. Deletes here
// are physical: the unique indexes on user email/mobile and payment
// invoice_id must free up so the values can be registered again.
func DeleteAccount(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	db := database.GetDB()

	if !auth.IsOwner() {
		if err := db.Unscoped().
			Where("id = ? AND account_id = ?", auth.UserID, auth.AccountID).
			Delete(&model.User{}).Error; err != nil {
			logger.FromEcho(c).Error("Failed to delete user", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete account"})
		}
		clearSessionCookie(c)
		return c.JSON(http.StatusOK, echo.Map{"message": "user removed"})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Soft-deleted invoices still own items and payments, so the
		// id sweep runs unscoped.
		var invoiceIDs []uint
		if err := tx.Unscoped().Model(&model.Invoice{}).
			Where("account_id = ?", auth.AccountID).
			Pluck("id", &invoiceIDs).Error; err != nil {
			return err
		}
		if len(invoiceIDs) > 0 {
			if err := tx.Unscoped().Where("invoice_id IN ?", invoiceIDs).
				Delete(&model.InvoiceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("invoice_id IN ?", invoiceIDs).
				Delete(&model.Payment{}).Error; err != nil {
				return err
			}
		}
		for _, m := range []interface{}{
			&model.Invoice{}, &model.Product{}, &model.Customer{},
			&model.InvoiceCounter{}, &model.User{},
		} {
			if err := tx.Unscoped().
				Where("account_id = ?", auth.AccountID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&model.Account{}, auth.AccountID).Error
	})
	if err != nil {
		logger.FromEcho(c).Error("Failed to delete account",
			zap.Uint("account_id", auth.AccountID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete account"})
	}

	logger.FromEcho(c).Info("Account deleted", zap.Uint("account_id", auth.AccountID))
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
