package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/handler"
	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/config"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/jwtutil"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("billing-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting billing service...", zap.String("environment", cfg.Server.Env))

	// Initialize database and run migrations
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Account{},
		&model.User{},
		&model.Customer{},
		&model.Product{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.InvoiceCounter{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize session token signing
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/logout", handler.Logout)

	// Payment gateway callback, authenticated by the gateway not the session
	e.POST("/api/payments/verify", handler.VerifyPayment)

	// Protected routes - all require a valid session
	api := e.Group("/api", middleware.Auth)

	users := api.Group("/users")
	users.GET("/me", handler.GetMe)
	users.PUT("/me", handler.UpdateMe)

	account := api.Group("/account")
	account.GET("/usage", handler.GetAccountUsage)
	account.PUT("/settings", handler.UpdateAccountSettings, middleware.OwnerOnly)
	account.PUT("/upgrade", handler.UpgradePlan, middleware.OwnerOnly)

	team := api.Group("/team")
	team.GET("/members", handler.ListTeamMembers)
	team.POST("/members", handler.AddTeamMember, middleware.OwnerOnly)
	team.DELETE("/members/:id", handler.RemoveTeamMember, middleware.OwnerOnly)

	customers := api.Group("/customers")
	customers.POST("", handler.CreateCustomer)
	customers.GET("", handler.GetCustomers)
	customers.GET("/:id", handler.GetCustomerByID)
	customers.PUT("/:id", handler.UpdateCustomer)
	customers.DELETE("/:id", handler.DeleteCustomer)

	products := api.Group("/products")
	products.POST("", handler.CreateProduct)
	products.POST("/bulk", handler.BulkCreateProducts)
	products.GET("", handler.GetProducts)
	products.GET("/:id", handler.GetProductByID)
	products.PUT("/:id", handler.UpdateProduct)
	products.DELETE("/:id", handler.DeleteProduct)

	invoices := api.Group("/invoices")
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("", handler.GetInvoices)
	invoices.GET("/recent", handler.GetRecentInvoices)
	invoices.GET("/:id", handler.GetInvoiceByID)
	invoices.PUT("/:id", handler.UpdateInvoice)
	invoices.PUT("/:id/paid", handler.MarkInvoicePaid)
	invoices.DELETE("/:id", handler.DeleteInvoice)
	invoices.GET("/:id/pdf", handler.DownloadInvoicePDF)

	payments := api.Group("/payments")
	payments.POST("", handler.CreatePayment)
	payments.GET("/invoice/:invoiceId", handler.GetPaymentByInvoice)
	payments.DELETE("/:id", handler.DeletePayment)

	// Analytics surfaces are gated by plan feature
	dashboard := api.Group("/dashboard", middleware.RequireFeature(plan.FeatureAnalytics))
	dashboard.GET("/summary", handler.GetDashboardSummary)
	dashboard.GET("/stock", handler.GetStockSummary)
	dashboard.GET("/devices", handler.GetDevices)
	dashboard.GET("/low-stock", handler.GetLowStockItems)

	reports := api.Group("/reports", middleware.RequireFeature(plan.FeatureAnalytics))
	reports.GET("/sales", handler.GetSalesReport)
	reports.GET("/profit-loss", handler.GetProfitLossReport)
	reports.GET("/gst", handler.GetGSTReport)

	security := api.Group("/security")
	security.POST("/change-password", handler.ChangePassword)
	security.DELETE("/account", handler.DeleteAccount)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
