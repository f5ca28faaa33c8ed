package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
)

func TestChangePassword(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	rec := request(t, ChangePassword, http.MethodPut, "/api/security/password",
		`{"current_password":"secret123","new_password":"evenmoresecret"}`, tn.auth())
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, db.First(&user, tn.owner.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(user.Password), []byte("evenmoresecret")))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	rec := request(t, ChangePassword, http.MethodPut, "/api/security/password",
		`{"current_password":"wrong","new_password":"evenmoresecret"}`, tn.auth())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordTooShort(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	rec := request(t, ChangePassword, http.MethodPut, "/api/security/password",
		`{"current_password":"secret123","new_password":"abc"}`, tn.auth())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAccountOwnerCascades(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)
	survivor := seedTenant(t, db, plan.Pro)

	// Build a tenant with data in every table.
	rec := request(t, AddTeamMember, http.MethodPost, "/api/team",
		`{"name":"Ravi","email":"cascade-member@test.local","password":"secret123"}`,
		tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	invoice := createTestInvoice(t, tn)
	body := fmt.Sprintf(`{"invoice_id":%d,"method":"cash","amount":100}`, invoice.ID)
	rec = request(t, CreatePayment, http.MethodPost, "/api/payments", body, tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	survivorInvoice := createTestInvoice(t, survivor)

	rec = request(t, DeleteAccount, http.MethodDelete, "/api/security/account", "", tn.auth())
	require.Equal(t, http.StatusOK, rec.Code)

	for _, m := range []interface{}{
		&model.User{}, &model.Customer{}, &model.Product{},
		&model.Invoice{}, &model.Payment{},
	} {
		var count int64
		require.NoError(t, db.Model(m).
			Where("account_id = ?", tn.account.ID).Count(&count).Error)
		assert.Zero(t, count, "%T rows gone", m)
	}
	assert.ErrorIs(t, db.First(&model.Account{}, tn.account.ID).Error,
		gorm.ErrRecordNotFound)

	// The other tenant is untouched.
	require.NoError(t, db.First(&model.Invoice{}, survivorInvoice.ID).Error)
	require.NoError(t, db.First(&model.Account{}, survivor.account.ID).Error)
}

func TestReRegisterAfterAccountDelete(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Starter)

	rec := request(t, DeleteAccount, http.MethodDelete, "/api/security/account", "", tn.auth())
	require.Equal(t, http.StatusOK, rec.Code)

	// The owner's email and mobile must be free again: the delete is
	// physical, so the unique indexes no longer hold the old values.
	body := fmt.Sprintf(`{"name":"Again","email":%q,"mobile":%q,"password":"secret123"}`,
		tn.owner.Email, *tn.owner.Mobile)
	rec = request(t, Register, http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, db.Unscoped().Model(&model.User{}).
		Where("email = ?", tn.owner.Email).Count(&count).Error)
	assert.EqualValues(t, 1, count, "no soft-deleted leftover occupying the index")
}

func TestDeleteAccountMemberDeletesSelfOnly(t *testing.T) {
	db := setupTest(t)
	tn := seedTenant(t, db, plan.Pro)

	rec := request(t, AddTeamMember, http.MethodPost, "/api/team",
		`{"name":"Ravi","email":"self-member@test.local","password":"secret123"}`,
		tn.auth())
	require.Equal(t, http.StatusCreated, rec.Code)

	var member model.User
	require.NoError(t, db.Where("email = ?", "self-member@test.local").
		First(&member).Error)

	memberAuth := &middleware.AuthContext{
		UserID:    member.ID,
		Email:     member.Email,
		Role:      model.RoleMember,
		AccountID: tn.account.ID,
		Plan:      tn.plan,
	}
	rec = request(t, DeleteAccount, http.MethodDelete, "/api/security/account", "", memberAuth)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Error(t, db.First(&model.User{}, member.ID).Error, "member removed")
	require.NoError(t, db.First(&model.Account{}, tn.account.ID).Error, "account survives")
	require.NoError(t, db.First(&model.User{}, tn.owner.ID).Error, "owner survives")
}
