package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_register_total",
			Help: "Total number of tenant registrations",
		},
	)

	InvoiceCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_invoices_created_total",
			Help: "Total number of invoices created",
		},
	)

	// Quota denial counter by resource (seats, invoices)
	QuotaDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_quota_denied_total",
			Help: "Total number of requests denied by plan quota",
		},
		[]string{"resource"},
	)

	// Plan upgrade counter by target plan
	PlanUpgradeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_plan_upgrades_total",
			Help: "Total number of plan upgrades",
		},
		[]string{"plan"},
	)

	SubscriptionExpiredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_subscription_expired_total",
			Help: "Total number of subscriptions lazily expired at auth time",
		},
	)

	FeatureDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_feature_denied_total",
			Help: "Total number of requests denied by plan feature gate",
		},
		[]string{"feature"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "user_not_found", etc.
	)

	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "billing_active_tokens",
			Help: "Number of currently active session tokens",
		},
	)

	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billing_info",
			Help: "Information about the billing service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(InvoiceCreatedCounter)
	prometheus.MustRegister(QuotaDeniedCounter)
	prometheus.MustRegister(PlanUpgradeCounter)
	prometheus.MustRegister(SubscriptionExpiredCounter)
	prometheus.MustRegister(FeatureDeniedCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active tokens gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordQuotaDenied records a quota denial by resource
func RecordQuotaDenied(resource string) {
	QuotaDeniedCounter.With(prometheus.Labels{"resource": resource}).Inc()
}

// RecordFeatureDenied records a feature gate denial
func RecordFeatureDenied(feature string) {
	FeatureDeniedCounter.With(prometheus.Labels{"feature": feature}).Inc()
}

// RecordPlanUpgrade records a plan upgrade by target plan
func RecordPlanUpgrade(plan string) {
	PlanUpgradeCounter.With(prometheus.Labels{"plan": plan}).Inc()
}
