package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/jwtutil"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// Register creates the owner user together with its account. Both inserts
// and the back-reference update run in one transaction, so no user is ever
// observable without a valid account_id.
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Mobile   string `json:"mobile"`
		Password string `json:"password"`
		Plan     string `json:"plan"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || req.Mobile == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields required"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Pro and business may be picked at registration but stay unverified
	// until a payment comes in; anything else falls back to starter.
	// Enterprise is only reachable through the upgrade path.
	selectedPlan := req.Plan
	switch selectedPlan {
	case plan.Pro, plan.Business:
	default:
		selectedPlan = plan.Starter
	}
	p, err := plan.ByID(selectedPlan)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan"})
	}

	db := database.GetDB()

	var existing model.User
	if err := db.Where("email = ? OR mobile = ?", email, req.Mobile).First(&existing).Error; err == nil {
		log.Warn("Duplicate registration attempt", zap.String("email", email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or mobile already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = db.Transaction(func(tx *gorm.DB) error {
		user := model.User{
			Name:     req.Name,
			Email:    email,
			Mobile:   &req.Mobile,
			Password: string(hashedPassword),
			Role:     model.RoleOwner,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		account := model.Account{
			OwnerID:           user.ID,
			Plan:              p.ID,
			UserLimit:         p.UserLimit,
			IsPaymentVerified: p.ID == plan.Starter,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		return tx.Model(&user).UpdateColumn("account_id", account.ID).Error
	})
	// The unique indexes on email and mobile are the real guard; a race
	// past the pre-check lands here and maps to the same conflict body.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Warn("Duplicate registration attempt", zap.String("email", email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or mobile already registered"})
	}
	if err != nil {
		log.Error("Failed to register tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Tenant registered", zap.String("email", email), zap.String("plan", p.ID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "registered successfully"})
}

// Login verifies credentials and issues the session cookie along with a
// snapshot of the account's plan and premium settings.
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := database.GetDB()

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	var account model.Account
	if err := db.First(&account, user.AccountID).Error; err != nil {
		log.Error("User has no account", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	setSessionCookie(c, token)
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("account_id", account.ID),
		zap.String("plan", account.Plan))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login successful",
		"user": echo.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,

			"plan":           account.Plan,
			"invoice_prefix": account.InvoicePrefix,
			"upi_id":         account.UpiID,
			"upi_qr_image":   account.UpiQrImage,

			"subscription_end":    account.SubscriptionEnd,
			"is_payment_verified": account.IsPaymentVerified,
		},
	})
}

// Logout clears the session cookie. The active-tokens gauge only moves when
// the request actually carried a session, so repeated logouts cannot drive
// it negative.
func Logout(c echo.Context) error {
	if cookie, err := c.Cookie(jwtutil.CookieName()); err == nil && cookie.Value != "" {
		prometheus.DecreaseActiveTokens()
	}
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

func setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     jwtutil.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   jwtutil.CookieMaxAge(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Now().Add(time.Duration(jwtutil.CookieMaxAge()) * time.Second),
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     jwtutil.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
