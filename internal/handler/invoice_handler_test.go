package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
)

func seedCustomer(t *testing.T, db *gorm.DB, accountID uint) model.Customer {
	t.Helper()
	c := model.Customer{AccountID: accountID, Name: "Acme Traders", IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, accountID uint, name string, rate float64, stock int) model.Product {
	t.Helper()
	p := model.Product{AccountID: accountID, Name: name, Rate: rate, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestCreateInvoiceHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 12000, 10)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":2}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		InvoiceNo string  `json:"invoice_no"`
		Total     float64 `json:"total"`
		Status    string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^MIA-\d{6}-\d{3}$`, resp.InvoiceNo)
	assert.Equal(t, 24000.0, resp.Total)
	assert.Equal(t, model.InvoiceStatusPending, resp.Status)

	var stored model.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 8, stored.Stock)
}

func TestCreateInvoiceQuotaDenied(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 100)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	for i := 0; i < 5; i++ {
		rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Error string `json:"error"`
		Limit int    `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "upgrade")
	assert.Equal(t, 5, resp.Limit)
}

func TestCreateInvoiceInsufficientStockHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 1)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":3}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock for Phone")
}

func TestCreateInvoiceUnknownCustomerHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 5)

	body := fmt.Sprintf(`{"customer_id":9999,"items":[{"product_id":%d,"quantity":1}]}`, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvoiceCrossTenant(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	other := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 5)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	// Same id through the other tenant's context: absent, not forbidden.
	rec = request(t, GetInvoiceByID, http.MethodGet, "/api/invoices/1", "",
		other.auth(), "id", fmt.Sprint(invoice.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, GetInvoiceByID, http.MethodGet, "/api/invoices/1", "",
		tn.auth(), "id", fmt.Sprint(invoice.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRecentInvoices(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 100)

	for i := 0; i < 7; i++ {
		body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
			customer.ID, product.ID)
		rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := request(t, GetRecentInvoices, http.MethodGet, "/api/invoices/recent", "", tn.auth())
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 5, "only the five newest invoices")
}

func TestUpdateInvoiceStatus(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 10)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	rec = request(t, UpdateInvoice, http.MethodPut, "/api/invoices/1",
		`{"status":"PAID"}`, tn.auth(), "id", fmt.Sprint(invoice.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.Invoice
	require.NoError(t, db.First(&stored, invoice.ID).Error)
	assert.Equal(t, model.InvoiceStatusPaid, stored.Status)
	assert.Equal(t, invoice.InvoiceNo, stored.InvoiceNo, "number never changes")

	rec = request(t, UpdateInvoice, http.MethodPut, "/api/invoices/1",
		`{"status":"VOID"}`, tn.auth(), "id", fmt.Sprint(invoice.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown status rejected")
}

func TestUpdateInvoiceCrossTenant(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	other := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 10)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	rec = request(t, UpdateInvoice, http.MethodPut, "/api/invoices/1",
		`{"status":"PAID"}`, other.auth(), "id", fmt.Sprint(invoice.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var stored model.Invoice
	require.NoError(t, db.First(&stored, invoice.ID).Error)
	assert.Equal(t, model.InvoiceStatusPending, stored.Status)
}

func TestMarkInvoicePaidHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 5)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	rec = request(t, MarkInvoicePaid, http.MethodPut, "/api/invoices/1/paid", "",
		tn.auth(), "id", fmt.Sprint(invoice.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&invoice, invoice.ID).Error)
	assert.Equal(t, model.InvoiceStatusPaid, invoice.Status)
}

func TestDeleteInvoiceHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 5)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	rec = request(t, DeleteInvoice, http.MethodDelete, "/api/invoices/1", "",
		tn.auth(), "id", fmt.Sprint(invoice.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	err := db.Where("id = ?", invoice.ID).First(&model.Invoice{}).Error
	assert.Error(t, err)

	rec = request(t, DeleteInvoice, http.MethodDelete, "/api/invoices/1", "",
		tn.auth(), "id", fmt.Sprint(invoice.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code, "second delete finds nothing")
}

func TestDownloadInvoicePDFHandler(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 12000, 5)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).First(&invoice).Error)

	rec = request(t, DownloadInvoicePDF, http.MethodGet, "/api/invoices/1/pdf", "",
		tn.auth(), "id", fmt.Sprint(invoice.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echoHeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), invoice.InvoiceNo)
	assert.True(t, rec.Body.Len() > 500, "non-trivial PDF payload")
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

const echoHeaderContentType = "Content-Type"
