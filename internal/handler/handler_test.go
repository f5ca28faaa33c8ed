package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/internal/plan"
	"github.com/devaakutty/Saas-backend/pkg/config"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/jwtutil"
)

// setupTest wires a fresh sqlite database into the package-global handle the
// handlers read and resets JWT config.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 24,
		CookieName:      "token",
	})

	dsn := filepath.Join(t.TempDir(), "handler.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.Account{}, &model.User{}, &model.Customer{}, &model.Product{},
		&model.Invoice{}, &model.InvoiceItem{}, &model.Payment{},
		&model.InvoiceCounter{}))

	database.DB = db
	return db
}

// tenant is a seeded account with its owner user and resolved plan.
type tenant struct {
	account model.Account
	owner   model.User
	plan    plan.Plan
}

var tenantSeq int

func seedTenant(t *testing.T, db *gorm.DB, planID string) *tenant {
	t.Helper()
	p, err := plan.ByID(planID)
	require.NoError(t, err)

	tenantSeq++
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	tn := &tenant{plan: p}
	tn.account = model.Account{
		Plan:              p.ID,
		UserLimit:         p.UserLimit,
		OwnerID:           1,
		IsPaymentVerified: planID == plan.Starter,
	}
	if plan.IsPaid(planID) {
		start := time.Now().Add(-time.Hour)
		end := time.Now().Add(29 * 24 * time.Hour)
		tn.account.SubscriptionStart = &start
		tn.account.SubscriptionEnd = &end
		tn.account.IsPaymentVerified = true
	}
	require.NoError(t, db.Create(&tn.account).Error)

	mobile := fmt.Sprintf("90000000%02d", tenantSeq)
	tn.owner = model.User{
		Email:     fmt.Sprintf("owner%d@test.local", tenantSeq),
		Mobile:    &mobile,
		Password:  string(hashed),
		Name:      "Owner",
		Role:      model.RoleOwner,
		AccountID: tn.account.ID,
	}
	require.NoError(t, db.Create(&tn.owner).Error)
	require.NoError(t, db.Model(&tn.account).
		UpdateColumn("owner_id", tn.owner.ID).Error)
	return tn
}

func (tn *tenant) auth() *middleware.AuthContext {
	return &middleware.AuthContext{
		UserID:            tn.owner.ID,
		Email:             tn.owner.Email,
		Role:              tn.owner.Role,
		AccountID:         tn.account.ID,
		Plan:              tn.plan,
		IsPaymentVerified: tn.account.IsPaymentVerified,
		SubscriptionEnd:   tn.account.SubscriptionEnd,
	}
}

// request builds an echo context carrying an optional JSON body, path params,
// and an optional auth context, and runs the handler against it.
func request(t *testing.T, h echo.HandlerFunc, method, path, body string, auth *middleware.AuthContext, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if auth != nil {
		middleware.SetAuthContext(c, auth)
	}
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	require.NoError(t, h(c))
	return rec
}
