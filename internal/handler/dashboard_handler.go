package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

const lowStockThreshold = 5

// GetDashboardSummary aggregates invoice totals for the account
func GetDashboardSummary(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to load dashboard data", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard data"})
	}

	var totalSales, received, pending float64
	for _, inv := range invoices {
		totalSales += inv.Total
		if inv.Status == model.InvoiceStatusPaid {
			received += inv.Total
		} else {
			pending += inv.Total
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_sales":     totalSales,
		"received_amount": received,
		"pending_amount":  pending,
		"total_expense":   0,
	})
}

// GetStockSummary aggregates product stock for the account
func GetStockSummary(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var products []model.Product
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Find(&products).Error; err != nil {
		logger.FromEcho(c).Error("Failed to load stock summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock summary not available"})
	}

	var active, totalStock, lowStock int
	for _, p := range products {
		if p.IsActive {
			active++
		}
		totalStock += p.Stock
		if p.Stock < 20 {
			lowStock++
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_products":  len(products),
		"active_products": active,
		"total_stock":     totalStock,
		"low_stock_count": lowStock,
	})
}

// GetDevices returns the top 5 most sold products this month by quantity,
// from paid invoices' item snapshots.
func GetDevices(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var invoices []model.Invoice
	if err := database.GetDB().
		Preload("Items").
		Where("account_id = ? AND status = ? AND created_at >= ?",
			auth.AccountID, model.InvoiceStatusPaid, startOfMonth).
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to load device data", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load device data"})
	}

	sold := map[string]int{}
	for _, inv := range invoices {
		for _, item := range inv.Items {
			sold[item.ProductName] += item.Quantity
		}
	}

	type productCount struct {
		Device string `json:"device"`
		Count  int    `json:"count"`
	}
	top := make([]productCount, 0, len(sold))
	for name, count := range sold {
		top = append(top, productCount{Device: name, Count: count})
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 5 {
		top = top[:5]
	}

	return c.JSON(http.StatusOK, top)
}

// GetLowStockItems lists products at or below the low stock threshold
func GetLowStockItems(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var products []model.Product
	if err := database.GetDB().
		Where("account_id = ? AND stock <= ?", auth.AccountID, lowStockThreshold).
		Order("stock asc").
		Find(&products).Error; err != nil {
		logger.FromEcho(c).Error("Failed to load low stock items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load low stock items"})
	}

	out := make([]echo.Map, 0, len(products))
	for _, p := range products {
		out = append(out, echo.Map{
			"id":       p.ID,
			"name":     p.Name,
			"quantity": p.Stock,
			"unit":     p.Unit,
		})
	}
	return c.JSON(http.StatusOK, out)
}
