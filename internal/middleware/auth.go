package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/billing"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/jwtutil"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

const authContextKey = "auth"

// AuthContext is the resolved authorization context for a request. It is the
// single source of truth for every downstream authorization decision: role
// checks, feature gates, and quota enforcement all read from here.
type AuthContext struct {
	UserID            uint
	Email             string
	Role              string
	AccountID         uint
	Plan              plan.Plan
	IsPaymentVerified bool
	SubscriptionEnd   *time.Time
}

// IsOwner reports whether the caller is the account owner.
func (a *AuthContext) IsOwner() bool {
	return a.Role == model.RoleOwner
}

// FromEcho retrieves the AuthContext set by the Auth middleware.
func FromEcho(c echo.Context) (*AuthContext, bool) {
	auth, ok := c.Get(authContextKey).(*AuthContext)
	return auth, ok
}

// SetAuthContext stores an AuthContext on the echo context. Exposed for
// handler tests.
func SetAuthContext(c echo.Context, auth *AuthContext) {
	c.Set(authContextKey, auth)
}

// Auth resolves the session token into an AuthContext. The token comes from
// the session cookie or an Authorization bearer header. A paid account whose
// subscription window has passed is lazily expired here, before the context
// is handed to any authorization decision.
func Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid or expired session token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		db := database.GetDB()

		var user model.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			log.Warn("Session user no longer exists", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}

		// A user without an account is an integrity violation, never a
		// guest. Fail loudly instead of defaulting.
		var account model.Account
		if err := db.First(&account, user.AccountID).Error; err != nil {
			log.Error("User has no account",
				zap.Uint("user_id", user.ID),
				zap.Uint("account_id", user.AccountID),
				zap.Error(err))
			prometheus.RecordAuthError("account_missing")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account not properly initialized"})
		}

		flipped, err := billing.ExpireIfLapsed(db, &account, time.Now())
		if err != nil {
			log.Error("Failed to expire lapsed subscription", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication failed"})
		}
		if flipped {
			prometheus.SubscriptionExpiredCounter.Inc()
			log.Info("Subscription lazily expired",
				zap.Uint("account_id", account.ID),
				zap.String("plan", account.Plan))
		}

		p, err := plan.ByID(account.Plan)
		if err != nil {
			log.Error("Account has invalid plan",
				zap.Uint("account_id", account.ID),
				zap.String("plan", account.Plan))
			prometheus.RecordAuthError("invalid_plan")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account not properly initialized"})
		}

		SetAuthContext(c, &AuthContext{
			UserID:            user.ID,
			Email:             user.Email,
			Role:              user.Role,
			AccountID:         account.ID,
			Plan:              p,
			IsPaymentVerified: account.IsPaymentVerified,
			SubscriptionEnd:   account.SubscriptionEnd,
		})

		return next(c)
	}
}

// OwnerOnly rejects callers that are not the account owner.
func OwnerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth, ok := FromEcho(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
		}
		if !auth.IsOwner() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only account owner can perform this action"})
		}
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(jwtutil.CookieName()); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
