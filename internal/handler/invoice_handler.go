package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/invoicing"
	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/pdfgen"
	"github.com/devaakutty/Saas-backend/internal/quota"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
	"github.com/devaakutty/Saas-backend/prometheus"
)

// CreateInvoice creates an invoice: monthly quota, stock decrements, and the
// invoice number are all claimed in one transaction inside the invoicing
// package.
func CreateInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		CustomerID uint                 `json:"customer_id"`
		Items      []invoicing.LineItem `json:"items"`
		Status     string               `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and items are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	invoice, err := invoicing.Create(
		database.GetDB(), auth.AccountID, auth.UserID, auth.Plan,
		req.CustomerID, req.Items, req.Status, time.Now())

	var limitErr *quota.InvoiceLimitError
	var stockErr *invoicing.InsufficientStockError
	switch {
	case errors.As(err, &limitErr):
		prometheus.RecordQuotaDenied("invoices")
		log.Info("Invoice quota denied",
			zap.Uint("account_id", auth.AccountID),
			zap.Int("limit", limitErr.Limit))
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "monthly invoice limit reached, upgrade your plan",
			"limit": limitErr.Limit,
		})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": stockErr.Error()})
	case errors.Is(err, invoicing.ErrCustomerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	case errors.Is(err, invoicing.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case err != nil:
		log.Error("Failed to create invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invoice"})
	}

	prometheus.InvoiceCreatedCounter.Inc()
	log.Info("Invoice created",
		zap.Uint("account_id", auth.AccountID),
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.Float64("total", invoice.Total))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         invoice.ID,
		"invoice_no": invoice.InvoiceNo,
		"total":      invoice.Total,
		"status":     invoice.Status,
	})
}

// GetInvoices lists the account's invoices, newest first
func GetInvoices(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Order("created_at desc").
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch invoices"})
	}

	out := make([]echo.Map, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, echo.Map{
			"id":          inv.ID,
			"invoice_no":  inv.InvoiceNo,
			"total":       inv.Total,
			"status":      inv.Status,
			"customer_id": inv.CustomerID,
			"created_at":  inv.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetRecentInvoices returns the account's five newest invoices
func GetRecentInvoices(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var invoices []model.Invoice
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Order("created_at desc").
		Limit(5).
		Find(&invoices).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list recent invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch invoices"})
	}

	out := make([]echo.Map, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, echo.Map{
			"id":          inv.ID,
			"invoice_no":  inv.InvoiceNo,
			"total":       inv.Total,
			"status":      inv.Status,
			"customer_id": inv.CustomerID,
			"created_at":  inv.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetInvoiceByID returns one invoice with its item snapshots
func GetInvoiceByID(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	var invoice model.Invoice
	if err := database.GetDB().
		Preload("Items").
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&invoice).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	var customer model.Customer
	customerOut := echo.Map{}
	if err := database.GetDB().
		Unscoped().
		Where("id = ? AND account_id = ?", invoice.CustomerID, auth.AccountID).
		First(&customer).Error; err == nil {
		customerOut = echo.Map{"name": customer.Name, "phone": customer.Phone}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         invoice.ID,
		"invoice_no": invoice.InvoiceNo,
		"status":     invoice.Status,
		"total":      invoice.Total,
		"created_at": invoice.CreatedAt,
		"items":      invoice.Items,
		"customer":   customerOut,
	})
}

// UpdateInvoice changes an invoice's status or customer. Item snapshots,
// the invoice number and the total are immutable after creation.
func UpdateInvoice(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	var req struct {
		Status     *string `json:"status"`
		CustomerID *uint   `json:"customer_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()

	var invoice model.Invoice
	if err := db.Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&invoice).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		if *req.Status != model.InvoiceStatusPending && *req.Status != model.InvoiceStatusPaid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice status"})
		}
		updates["status"] = *req.Status
	}
	if req.CustomerID != nil {
		var customer model.Customer
		if err := db.Where("id = ? AND account_id = ?", *req.CustomerID, auth.AccountID).
			First(&customer).Error; err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		updates["customer_id"] = *req.CustomerID
	}

	if len(updates) > 0 {
		if err := db.Model(&invoice).Updates(updates).Error; err != nil {
			logger.FromEcho(c).Error("Failed to update invoice", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update invoice"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          invoice.ID,
		"invoice_no":  invoice.InvoiceNo,
		"total":       invoice.Total,
		"status":      invoice.Status,
		"customer_id": invoice.CustomerID,
	})
}

// MarkInvoicePaid sets an invoice's status to PAID
func MarkInvoicePaid(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	res := database.GetDB().Model(&model.Invoice{}).
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		Update("status", model.InvoiceStatusPaid)
	if res.Error != nil {
		logger.FromEcho(c).Error("Failed to mark invoice paid", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update invoice"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "invoice marked as paid"})
}

// DeleteInvoice soft deletes an invoice of the caller's account
func DeleteInvoice(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	res := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		Delete(&model.Invoice{})
	if res.Error != nil {
		logger.FromEcho(c).Error("Failed to delete invoice", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete invoice"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "invoice deleted successfully"})
}

// DownloadInvoicePDF renders an invoice as a PDF document
func DownloadInvoicePDF(c echo.Context) error {
	log := logger.FromEcho(c)
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	db := database.GetDB()

	var invoice model.Invoice
	if err := db.
		Preload("Items").
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&invoice).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	// Soft-deleted customers still render on historical invoices.
	var customer *model.Customer
	var cust model.Customer
	if err := db.Unscoped().
		Where("id = ? AND account_id = ?", invoice.CustomerID, auth.AccountID).
		First(&cust).Error; err == nil {
		customer = &cust
	}

	var issuer model.User
	if err := db.Unscoped().First(&issuer, invoice.CreatedBy).Error; err != nil {
		issuer = model.User{}
	}

	data, err := pdfgen.InvoicePDF(&invoice, customer, &issuer)
	if err != nil {
		log.Error("Failed to render invoice PDF", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate invoice pdf"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=invoice-%s.pdf", invoice.InvoiceNo))
	return c.Blob(http.StatusOK, "application/pdf", data)
}
