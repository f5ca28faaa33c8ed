package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/database"
)

func TestVerifyPaymentUpgradesAccount(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	rec := request(t, VerifyPayment, http.MethodPost, "/api/payments/verify",
		`{"email":"`+tn.owner.Email+`","plan":"pro"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Plan      string `json:"plan"`
		UserLimit int    `json:"user_limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, plan.Pro, resp.Plan)
	assert.Equal(t, 5, resp.UserLimit)

	var account model.Account
	require.NoError(t, db.First(&account, tn.account.ID).Error)
	assert.Equal(t, plan.Pro, account.Plan)
	assert.True(t, account.IsPaymentVerified)
	require.NotNil(t, account.SubscriptionEnd)

	// The fresh session cookie carries the upgraded account forward.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestVerifyPaymentInvalidPlan(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	for _, p := range []string{"starter", "gold"} {
		rec := request(t, VerifyPayment, http.MethodPost, "/api/payments/verify",
			`{"email":"`+tn.owner.Email+`","plan":"`+p+`"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "plan %q", p)
	}
}

func TestVerifyPaymentUnknownUser(t *testing.T) {
	setupTest(t)

	rec := request(t, VerifyPayment, http.MethodPost, "/api/payments/verify",
		`{"email":"nobody@test.local","plan":"pro"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func createTestInvoice(t *testing.T, tn *tenant) model.Invoice {
	t.Helper()
	db := database.GetDB()
	customer := seedCustomer(t, db, tn.account.ID)
	product := seedProduct(t, db, tn.account.ID, "Phone", 100, 10)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`,
		customer.ID, product.ID)
	rec := request(t, CreateInvoice, http.MethodPost, "/api/invoices", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, db.Where("account_id = ?", tn.account.ID).
		Order("id desc").First(&invoice).Error)
	return invoice
}

func TestCreatePayment(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"upi","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment model.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).First(&payment).Error)
	assert.Equal(t, tn.account.ID, payment.AccountID)
	assert.Equal(t, 100.0, payment.Amount)
	assert.Equal(t, "upi", payment.Method)
}

func TestCreatePaymentDuplicate(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"upi","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreatePaymentCrossTenantInvoice(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	other := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"upi","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, other.auth())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPaymentByInvoice(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"cash","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, GetPaymentByInvoice, http.MethodGet, "/api/payments/invoice/1", "",
		tn.auth(), "invoiceId", fmt.Sprint(invoice.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var payment model.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	assert.Equal(t, "cash", payment.Method)
}

func TestDeletePayment(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"cash","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment model.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).First(&payment).Error)

	rec = request(t, DeletePayment, http.MethodDelete, "/api/payments/1", "",
		tn.auth(), "id", fmt.Sprint(payment.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, DeletePayment, http.MethodDelete, "/api/payments/1", "",
		tn.auth(), "id", fmt.Sprint(payment.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecreatePaymentAfterDelete(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	invoice := createTestInvoice(t, tn)

	body := fmt.Sprintf(`{"invoice_id":%d,"method":"cash","amount":100}`, invoice.ID)
	rec := request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment model.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).First(&payment).Error)

	rec = request(t, DeletePayment, http.MethodDelete, "/api/payments/1", "",
		tn.auth(), "id", fmt.Sprint(payment.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	// Deleting frees the unique invoice_id slot, so a corrected payment
	// can be recorded for the same invoice.
	body = fmt.Sprintf(`{"invoice_id":%d,"method":"upi","amount":100}`, invoice.ID)
	rec = request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
