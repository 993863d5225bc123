// Package catalog handles the product catalog and stock levels.
package catalog

import (
	"fmt"
	"strings"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CategoryID     uint     `json:"category_id"`
	UnitID         uint     `json:"unit_id"`
	PurchasePrice  *float64 `json:"purchase_price"`
	SellingPrice   *float64 `json:"selling_price"`
	CurrentStock   *float64 `json:"current_stock"`
	AlertThreshold *float64 `json:"alert_threshold"`
	Barcode        string   `json:"barcode"`
	ImageURL       string   `json:"image_url"`
	IsActive       *bool    `json:"is_active"`
}

type AdjustStockRequest struct {
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
}

type BulkUpdateRequest struct {
	ProductIDs []uint         `json:"product_ids"`
	Fields     map[string]any `json:"fields"`
}

// Fields bulk-update may touch. Stock is excluded on purpose, it only
// moves through entries, sales and adjust-stock.
var bulkFields = map[string]bool{
	"category_id":     true,
	"purchase_price":  true,
	"selling_price":   true,
	"alert_threshold": true,
	"is_active":       true,
}

func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Category").Preload("Unit").Order("name")
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}
		if cat := c.Query("category_id"); cat != "" {
			q = q.Where("category_id = ?", cat)
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("name ILIKE ? OR barcode ILIKE ?", like, like)
		}

		var products []models.Product
		if err := q.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}
		return c.JSON(products)
	}
}

func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := database.DB.Preload("Category").Preload("Unit").
			First(&product, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(product)
	}
}

func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ProductRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if req.CategoryID == 0 || req.UnitID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id and unit_id are required")
		}
		if req.PurchasePrice != nil && *req.PurchasePrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "purchase_price cannot be negative")
		}
		if req.SellingPrice != nil && *req.SellingPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "selling_price cannot be negative")
		}
		if req.CurrentStock != nil && *req.CurrentStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "current_stock cannot be negative")
		}

		var count int64
		database.DB.Model(&models.ProductCategory{}).Where("id = ?", req.CategoryID).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown category")
		}
		database.DB.Model(&models.ProductUnit{}).Where("id = ?", req.UnitID).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown unit")
		}

		product := models.Product{
			Name:           strings.TrimSpace(req.Name),
			Description:    req.Description,
			CategoryID:     req.CategoryID,
			UnitID:         req.UnitID,
			Barcode:        req.Barcode,
			ImageURL:       req.ImageURL,
			AlertThreshold: 5,
			IsActive:       true,
		}
		if req.PurchasePrice != nil {
			product.PurchasePrice = *req.PurchasePrice
		}
		if req.SellingPrice != nil {
			product.SellingPrice = *req.SellingPrice
		}
		if req.CurrentStock != nil {
			product.CurrentStock = *req.CurrentStock
		}
		if req.AlertThreshold != nil {
			product.AlertThreshold = *req.AlertThreshold
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		product.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		writeProductAudit(c, models.AuditActionCreate, product.ID, "Created product "+product.Name, nil, &product)
		database.DB.Preload("Category").Preload("Unit").First(&product, product.ID)
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := database.DB.First(&product, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		before := product

		var req ProductRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.Name) != "" {
			product.Name = strings.TrimSpace(req.Name)
		}
		if req.Description != "" {
			product.Description = req.Description
		}
		if req.CategoryID != 0 {
			product.CategoryID = req.CategoryID
		}
		if req.UnitID != 0 {
			product.UnitID = req.UnitID
		}
		if req.PurchasePrice != nil {
			if *req.PurchasePrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "purchase_price cannot be negative")
			}
			product.PurchasePrice = *req.PurchasePrice
		}
		if req.SellingPrice != nil {
			if *req.SellingPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "selling_price cannot be negative")
			}
			product.SellingPrice = *req.SellingPrice
		}
		if req.AlertThreshold != nil {
			product.AlertThreshold = *req.AlertThreshold
		}
		if req.Barcode != "" {
			product.Barcode = req.Barcode
		}
		if req.ImageURL != "" {
			product.ImageURL = req.ImageURL
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		product.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		writeProductAudit(c, models.AuditActionUpdate, product.ID, "Updated product "+product.Name, &before, &product)
		database.DB.Preload("Category").Preload("Unit").First(&product, product.ID)
		return c.JSON(product)
	}
}

func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := database.DB.First(&product, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var count int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&count)
		if count == 0 {
			database.DB.Model(&models.EntryItem{}).Where("product_id = ?", product.ID).Count(&count)
		}
		if count > 0 {
			// Referenced by documents: deactivate instead of breaking history.
			before := product
			product.IsActive = false
			product.StampUpdated(auth.ActorID(c))
			if err := database.DB.Save(&product).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate product")
			}
			writeProductAudit(c, models.AuditActionUpdate, product.ID, "Deactivated product "+product.Name, &before, &product)
			return c.JSON(fiber.Map{"message": "Product has sales or entries; deactivated instead of deleted"})
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}
		writeProductAudit(c, models.AuditActionDelete, product.ID, "Deleted product "+product.Name, &product, nil)
		return c.JSON(fiber.Map{"message": "Product deleted"})
	}
}

// LowStockHandler lists active products at or below their alert threshold.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Preload("Category").Preload("Unit").
			Where("is_active = true AND current_stock <= alert_threshold").
			Order("current_stock").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list low stock products")
		}
		return c.JSON(products)
	}
}

// StockAlertsHandler splits low stock into out-of-stock and low-stock buckets.
func StockAlertsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Preload("Category").Preload("Unit").
			Where("is_active = true AND current_stock <= alert_threshold").
			Order("current_stock").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute stock alerts")
		}

		outOfStock := []models.Product{}
		lowStock := []models.Product{}
		for _, p := range products {
			if p.CurrentStock <= 0 {
				outOfStock = append(outOfStock, p)
			} else {
				lowStock = append(lowStock, p)
			}
		}

		return c.JSON(fiber.Map{
			"out_of_stock": outOfStock,
			"low_stock":    lowStock,
			"total_alerts": len(products),
		})
	}
}

// AdjustStockHandler applies a signed manual correction. The decrement is
// conditional so concurrent adjustments can never drive stock negative.
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := database.DB.First(&product, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var req AdjustStockRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Quantity == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be non-zero")
		}

		before := product
		res := database.DB.Model(&models.Product{}).
			Where("id = ? AND current_stock + ? >= 0", product.ID, req.Quantity).
			Updates(map[string]any{
				"current_stock": gorm.Expr("current_stock + ?", req.Quantity),
				"updated_by":    auth.ActorID(c),
			})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not adjust stock")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Adjustment would make stock negative (current: %.2f)", product.CurrentStock))
		}

		database.DB.First(&product, product.ID)
		desc := fmt.Sprintf("Adjusted stock of %s by %+.2f", product.Name, req.Quantity)
		if req.Reason != "" {
			desc += " (" + req.Reason + ")"
		}
		writeProductAudit(c, models.AuditActionUpdate, product.ID, desc, &before, &product)

		return c.JSON(product)
	}
}

// ByCategoryHandler groups active products under their category.
func ByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.ProductCategory
		if err := database.DB.Where("is_active = true").Order("name").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		type categoryGroup struct {
			Category models.ProductCategory `json:"category"`
			Products []models.Product       `json:"products"`
			Count    int                    `json:"count"`
		}

		groups := make([]categoryGroup, 0, len(categories))
		for _, cat := range categories {
			var products []models.Product
			database.DB.Preload("Unit").
				Where("category_id = ? AND is_active = true", cat.ID).
				Order("name").Find(&products)
			groups = append(groups, categoryGroup{Category: cat, Products: products, Count: len(products)})
		}
		return c.JSON(groups)
	}
}

// InventoryValueHandler totals stock on hand at purchase and selling prices.
func InventoryValueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type valueRow struct {
			TotalProducts int64   `json:"total_products"`
			TotalUnits    float64 `json:"total_units"`
			PurchaseValue float64 `json:"purchase_value"`
			SellingValue  float64 `json:"selling_value"`
		}

		var row valueRow
		err := database.DB.Model(&models.Product{}).
			Where("is_active = true").
			Select("COUNT(*) AS total_products, " +
				"COALESCE(SUM(current_stock), 0) AS total_units, " +
				"COALESCE(SUM(current_stock * purchase_price), 0) AS purchase_value, " +
				"COALESCE(SUM(current_stock * selling_price), 0) AS selling_value").
			Scan(&row).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute inventory value")
		}

		return c.JSON(fiber.Map{
			"total_products":   row.TotalProducts,
			"total_units":      row.TotalUnits,
			"purchase_value":   row.PurchaseValue,
			"selling_value":    row.SellingValue,
			"potential_margin": row.SellingValue - row.PurchaseValue,
		})
	}
}

// AdvancedSearchHandler filters on free text, category, price band and
// stock state in one query.
func AdvancedSearchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Category").Preload("Unit").Order("name")

		if text := c.Query("q"); text != "" {
			like := "%" + text + "%"
			q = q.Where("name ILIKE ? OR description ILIKE ? OR barcode ILIKE ?", like, like, like)
		}
		if cat := c.Query("category"); cat != "" {
			q = q.Where("category_id = ?", cat)
		}
		if minPrice := c.QueryFloat("min_price", -1); minPrice >= 0 {
			q = q.Where("selling_price >= ?", minPrice)
		}
		if maxPrice := c.QueryFloat("max_price", -1); maxPrice >= 0 {
			q = q.Where("selling_price <= ?", maxPrice)
		}
		if c.Query("low_stock") == "true" {
			q = q.Where("current_stock <= alert_threshold")
		}
		if c.Query("include_inactive") != "true" {
			q = q.Where("is_active = true")
		}

		var products []models.Product
		if err := q.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Search failed")
		}
		return c.JSON(fiber.Map{"count": len(products), "results": products})
	}
}

// BulkUpdateHandler applies the same whitelisted field changes to a set of
// products in one transaction.
func BulkUpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BulkUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(req.ProductIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_ids is required")
		}

		updates := map[string]any{}
		for k, v := range req.Fields {
			if bulkFields[k] {
				updates[k] = v
			}
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No updatable fields provided")
		}
		updates["updated_by"] = auth.ActorID(c)

		tx := database.DB.Begin()
		res := tx.Model(&models.Product{}).Where("id IN ?", req.ProductIDs).Updates(updates)
		if res.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Bulk update failed")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bulk update failed")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.FullName(),
				EntityType:  "product",
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Bulk updated %d products", res.RowsAffected),
				After:       updates,
			})
		}

		return c.JSON(fiber.Map{"updated": res.RowsAffected})
	}
}

func writeProductAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, desc string, before, after *models.Product) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	opts := audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.FullName(),
		EntityType:  "product",
		EntityID:    entityID,
		Action:      action,
		Description: desc,
	}
	if before != nil {
		opts.Before = before
	}
	if after != nil {
		opts.After = after
	}
	_ = audit.WriteLog(opts)
}
