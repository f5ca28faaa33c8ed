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

// CreateProduct creates a tenant-scoped product
func CreateProduct(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Name  string   `json:"name"`
		Rate  *float64 `json:"rate"`
		Unit  string   `json:"unit"`
		Stock int      `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" || req.Rate == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product name and rate are required"})
	}
	if req.Stock < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock cannot be negative"})
	}

	product := model.Product{
		AccountID: auth.AccountID,
		Name:      strings.TrimSpace(req.Name),
		Rate:      *req.Rate,
		Stock:     req.Stock,
		IsActive:  true,
	}
	if req.Unit != "" {
		product.Unit = strings.TrimSpace(req.Unit)
	}

	if err := database.GetDB().Create(&product).Error; err != nil {
		logger.FromEcho(c).Error("Failed to create product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}

	return c.JSON(http.StatusCreated, product)
}

// BulkCreateProducts inserts a batch of products in one transaction. The
// batch is all-or-nothing: one bad row rejects the whole request.
func BulkCreateProducts(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var req struct {
		Products []struct {
			Name  string   `json:"name"`
			Rate  *float64 `json:"rate"`
			Unit  string   `json:"unit"`
			Stock int      `json:"stock"`
		} `json:"products"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.Products) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "products are required"})
	}

	products := make([]model.Product, 0, len(req.Products))
	for _, p := range req.Products {
		if strings.TrimSpace(p.Name) == "" || p.Rate == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every product needs a name and rate"})
		}
		if p.Stock < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock cannot be negative"})
		}
		products = append(products, model.Product{
			AccountID: auth.AccountID,
			Name:      strings.TrimSpace(p.Name),
			Rate:      *p.Rate,
			Unit:      strings.TrimSpace(p.Unit),
			Stock:     p.Stock,
			IsActive:  true,
		})
	}

	if err := database.GetDB().Create(&products).Error; err != nil {
		logger.FromEcho(c).Error("Failed to bulk create products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create products"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "products added successfully",
		"count":   len(products),
	})
}

// GetProducts lists the account's active products
func GetProducts(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	var products []model.Product
	if err := database.GetDB().
		Where("account_id = ? AND is_active = ?", auth.AccountID, true).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProductByID returns one product of the caller's account
func GetProductByID(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var product model.Product
	if err := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&product).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	return c.JSON(http.StatusOK, product)
}

// UpdateProduct updates a product of the caller's account
func UpdateProduct(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req struct {
		Name     *string  `json:"name"`
		Rate     *float64 `json:"rate"`
		Unit     *string  `json:"unit"`
		Stock    *int     `json:"stock"`
		IsActive *bool    `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var product model.Product
	if err := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		First(&product).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Rate != nil {
		updates["rate"] = *req.Rate
	}
	if req.Unit != nil {
		updates["unit"] = strings.TrimSpace(*req.Unit)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock cannot be negative"})
		}
		updates["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.GetDB().Model(&product).Updates(updates).Error; err != nil {
			logger.FromEcho(c).Error("Failed to update product", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
		}
	}

	return c.JSON(http.StatusOK, product)
}

// DeleteProduct soft deletes a product so invoice item snapshots stay
// meaningful.
func DeleteProduct(c echo.Context) error {
	auth, ok := middleware.FromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authorized, please login"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	res := database.GetDB().
		Where("id = ? AND account_id = ?", id, auth.AccountID).
		Delete(&model.Product{})
	if res.Error != nil {
		logger.FromEcho(c).Error("Failed to delete product", zap.Error(res.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}
