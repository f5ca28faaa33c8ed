package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
)

const (
	// gstRate is the inclusive GST share applied to paid totals.
	gstRate = 0.18
	// costRatio estimates cost of goods as a fraction of sales.
	costRatio = 0.70
)

func reportRange(c echo.Context) (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if v := c.QueryParam("from"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, now.Location()); err == nil {
			from = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, now.Location()); err == nil {
			to = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return from, to
}

// GetSalesReport summarizes paid invoices in a date range for the account
func GetSalesReport(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	from, to := reportRange(c)

	var invoices []model.Invoice
	if err := database.GetDB().
		Preload("Items").
		Where("account_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			auth.AccountID, model.InvoiceStatusPaid, from, to).
		Order("created_at desc").
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to build sales report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build sales report"})
	}

	var totalSales float64
	var totalItems int
	for _, inv := range invoices {
		totalSales += inv.Total
		for _, item := range inv.Items {
			totalItems += item.Quantity
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
		"total_sales": totalSales,
		"total_items": totalItems,
		"invoices":    invoices,
	})
}

// GetGSTReport summarizes GST collected on paid invoices in a date range.
// Totals are treated as GST-inclusive.
func GetGSTReport(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	from, to := reportRange(c)

	var invoices []model.Invoice
	if err := database.GetDB().
		Where("account_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			auth.AccountID, model.InvoiceStatusPaid, from, to).
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to build GST report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build gst report"})
	}

	var gross float64
	for _, inv := range invoices {
		gross += inv.Total
	}
	taxable := gross / (1 + gstRate)
	gst := gross - taxable

	return c.JSON(http.StatusOK, echo.Map{
		"from":           from.Format("2006-01-02"),
		"to":             to.Format("2006-01-02"),
		"gst_rate":       gstRate,
		"invoice_count":  len(invoices),
		"gross_amount":   gross,
		"taxable_amount": taxable,
		"gst_collected":  gst,
	})
}

// GetProfitLossReport estimates profit and GST liability from paid invoices
func GetProfitLossReport(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	from, to := reportRange(c)

	var invoices []model.Invoice
	if err := database.GetDB().
		Where("account_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			auth.AccountID, model.InvoiceStatusPaid, from, to).
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to build profit report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build profit report"})
	}

	var revenue float64
	for _, inv := range invoices {
		revenue += inv.Total
	}

	// Totals are GST-inclusive; back out the tax before estimating cost.
	netRevenue := revenue / (1 + gstRate)
	gst := revenue - netRevenue
	cost := netRevenue * costRatio
	profit := netRevenue - cost

	return c.JSON(http.StatusOK, echo.Map{
		"from":           from.Format("2006-01-02"),
		"to":             to.Format("2006-01-02"),
		"gross_revenue":  revenue,
		"net_revenue":    netRevenue,
		"gst_collected":  gst,
		"estimated_cost": cost,
		"profit":         profit,
	})
}
