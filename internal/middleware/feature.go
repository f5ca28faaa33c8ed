package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// RequireFeature permits the request only when the caller's plan includes
// the feature. Pure function of the resolved plan; no persistence.
func RequireFeature(feature plan.Feature) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := FromEcho(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
			}

			if !auth.Plan.HasFeature(feature) {
				logger.FromEcho(c).Info("Feature gate denied",
					zap.Uint("account_id", auth.AccountID),
					zap.String("plan", auth.Plan.ID),
					zap.String("feature", string(feature)))
				prometheus.RecordFeatureDenied(string(feature))
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": fmt.Sprintf("upgrade to access %s", feature),
				})
			}

			return next(c)
		}
	}
}
