package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/quota"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// AddTeamMember creates a member user within the plan's seat limit (owner
// only). The quota check and the insert are atomic per account, so
// concurrent calls cannot overshoot the cap.
func AddTeamMember(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Mobile   string `json:"mobile"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := database.GetDB()

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add team member"})
	}

	member := model.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hashedPassword),
	}
	if req.Mobile != "" {
		member.Mobile = &req.Mobile
	}

	err = quota.AddMember(db, auth.AccountID, auth.Plan, &member)
	var seatErr *quota.SeatLimitError
	if errors.As(err, &seatErr) {
		prometheus.RecordQuotaDenied("seats")
		log.Info("Seat quota denied",
			zap.Uint("account_id", auth.AccountID),
			zap.Int("limit", seatErr.Limit))
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "user limit reached, upgrade plan",
			"limit": seatErr.Limit,
		})
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		log.Error("Failed to add team member", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add team member"})
	}

	log.Info("Team member added",
		zap.Uint("account_id", auth.AccountID),
		zap.Uint("member_id", member.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "team member added",
		"member": echo.Map{
			"id":    member.ID,
			"name":  member.Name,
			"email": member.Email,
			"role":  member.Role,
		},
	})
}

// ListTeamMembers returns all users of the caller's account
func ListTeamMembers(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var members []model.User
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Order("created_at asc").
		Find(&members).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list team members", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list team members"})
	}

	out := make([]echo.Map, 0, len(members))
	for _, m := range members {
		out = append(out, echo.Map{
			"id":    m.ID,
			"name":  m.Name,
			"email": m.Email,
			"role":  m.Role,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// RemoveTeamMember deletes a member of the caller's account (owner only).
// The owner itself cannot be removed here; owner deletion cascades the whole
// tenant through the security handler.
func RemoveTeamMember(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	// Scoped by (id, account_id): a guessed id from another tenant reads as
	// absent, never as forbidden.
	var member model.User
	if err := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&member).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}

	if member.Role == model.RoleOwner {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove the account owner"})
	}

	// Hard delete so the member's email and mobile can be registered again.
	if err := database.GetDB().Unscoped().Delete(&member).Error; err != nil {
		log.Error("Failed to remove team member", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove team member"})
	}

	log.Info("Team member removed",
		zap.Uint("account_id", auth.AccountID),
		zap.Uint("member_id", member.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "team member removed"})
}
