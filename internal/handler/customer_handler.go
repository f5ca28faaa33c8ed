package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/devaakutty/Saas-backend/internal/middleware"
	"github.com/devaakutty/Saas-backend/internal/model"
	"github.com/devaakutty/Saas-backend/pkg/database"
	"github.com/devaakutty/Saas-backend/pkg/logger"
)

// CreateCustomer creates a tenant-scoped customer record
func CreateCustomer(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer name is required"})
	}

	customer := model.Customer{
		AccountID: auth.AccountID,
		Name:      strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		IsActive:  true,
	}

	if err := database.GetDB().Create(&customer).Error; err != nil {
		logger.FromEcho(c).Error("Failed to create customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create customer"})
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists the account's customers
func GetCustomers(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var customers []model.Customer
	if err := database.GetDB().
		Where("account_id = ?", auth.AccountID).
		Order("created_at desc").
		Find(&customers).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list customers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch customers"})
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomerByID returns one customer of the caller's account
func GetCustomerByID(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	var customer model.Customer
	if err := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&customer).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates a customer of the caller's account
func UpdateCustomer(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	var req struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		Email    *string `json:"email"`
		Address  *string `json:"address"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var customer model.Customer
	if err := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&customer).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.GetDB().Model(&customer).Updates(updates).Error; err != nil {
			logger.FromEcho(c).Error("Failed to update customer", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update customer"})
		}
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer soft deletes a customer so historical invoices keep their
// reference.
func DeleteCustomer(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	res := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		Delete(&model.Customer{})
	if res.Error != nil {
		logger.FromEcho(c).Error("Failed to delete customer", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete customer"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "customer deleted successfully"})
}
