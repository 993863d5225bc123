// Package sales handles point-of-sale transactions. Completing a sale is
// the only path that decrements stock, and it does so atomically.
package sales

import (
	"fmt"
	"time"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/reference"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SaleItemRequest struct {
	ProductID uint     `json:"product_id"`
	Quantity  float64  `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	Discount  *float64 `json:"discount"`
	TaxRate   *float64 `json:"tax_rate"`
}

type SaleRequest struct {
	CustomerID        *uint             `json:"customer_id"`
	SaleDate          string            `json:"sale_date"`
	DiscountAmount    *float64          `json:"discount_amount"`
	TaxAmount         *float64          `json:"tax_amount"`
	PaymentMethodCode string            `json:"payment_method"`
	PaymentStatusCode string            `json:"payment_status"`
	Notes             string            `json:"notes"`
	TableNumber       string            `json:"table_number"`
	IsTakeAway        bool              `json:"is_take_away"`
	CustomerName      string            `json:"customer_name"`
	CustomerPhone     string            `json:"customer_phone"`
	Items             []SaleItemRequest `json:"items"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// applyHeaderAmounts merges the order-level discount and tax onto the
// header. Fields the request omits keep their current values.
func applyHeaderAmounts(sale *models.Sale, req SaleRequest) {
	if req.DiscountAmount != nil {
		sale.DiscountAmount = *req.DiscountAmount
	}
	if req.TaxAmount != nil {
		sale.TaxAmount = *req.TaxAmount
	}
}

// applyItemPricing merges the priced fields onto one line and reprices it.
// Fields the request omits keep their current values.
func applyItemPricing(item *models.SaleItem, req SaleItemRequest) error {
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			return fmt.Errorf("unit_price cannot be negative")
		}
		item.UnitPrice = *req.UnitPrice
	}
	if req.Discount != nil {
		item.Discount = *req.Discount
	}
	if req.TaxRate != nil {
		item.TaxRate = *req.TaxRate
	}
	item.Recalculate()
	return nil
}

// buildItem validates one request line and snapshots the product name and
// price. A missing unit_price falls back to the catalog selling price.
func buildItem(req SaleItemRequest) (models.SaleItem, error) {
	if req.ProductID == 0 {
		return models.SaleItem{}, fmt.Errorf("product_id is required")
	}
	if req.Quantity <= 0 {
		return models.SaleItem{}, fmt.Errorf("quantity must be positive")
	}

	var product models.Product
	if err := database.DB.First(&product, "id = ?", req.ProductID).Error; err != nil {
		return models.SaleItem{}, fmt.Errorf("unknown product %d", req.ProductID)
	}
	if !product.IsActive {
		return models.SaleItem{}, fmt.Errorf("product %s is inactive", product.Name)
	}

	item := models.SaleItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		UnitPrice:   product.SellingPrice,
	}
	if err := applyItemPricing(&item, req); err != nil {
		return models.SaleItem{}, err
	}
	return item, nil
}

func validatePaymentMethod(code string) error {
	if code == "" {
		return fmt.Errorf("payment_method is required")
	}
	var count int64
	database.DB.Model(&models.PaymentMethod{}).Where("code = ? AND is_active = true", code).Count(&count)
	if count == 0 {
		return fmt.Errorf("unknown payment method %q", code)
	}
	return nil
}

func validateSaleStatusCodes(payment, status string) error {
	if payment != "" {
		var count int64
		database.DB.Model(&models.PaymentStatus{}).Where("code = ?", payment).Count(&count)
		if count == 0 {
			return fmt.Errorf("unknown payment status %q", payment)
		}
	}
	if status != "" {
		var count int64
		database.DB.Model(&models.SaleStatus{}).Where("code = ?", status).Count(&count)
		if count == 0 {
			return fmt.Errorf("unknown sale status %q", status)
		}
	}
	return nil
}

func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Customer").Preload("Items").Order("sale_date DESC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status_code = ?", status)
		}
		if payment := c.Query("payment_status"); payment != "" {
			q = q.Where("payment_status_code = ?", payment)
		}
		if customer := c.Query("customer_id"); customer != "" {
			q = q.Where("customer_id = ?", customer)
		}

		var sales []models.Sale
		if err := q.Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sales")
		}
		return c.JSON(sales)
	}
}

func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.Preload("Customer").Preload("Items").Preload("Items.Product").
			First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		return c.JSON(sale)
	}
}

func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SaleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(req.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "A sale needs at least one item")
		}
		if err := validatePaymentMethod(req.PaymentMethodCode); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validateSaleStatusCodes(req.PaymentStatusCode, ""); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.CustomerID != nil {
			var count int64
			database.DB.Model(&models.Customer{}).Where("id = ?", *req.CustomerID).Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown customer")
			}
		}

		saleDate := time.Now()
		if req.SaleDate != "" {
			d, err := time.Parse("2006-01-02", req.SaleDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "sale_date must be YYYY-MM-DD")
			}
			saleDate = d
		}

		sale := models.Sale{
			Reference:         reference.New(reference.PrefixSale),
			CustomerID:        req.CustomerID,
			SaleDate:          saleDate,
			PaymentMethodCode: req.PaymentMethodCode,
			PaymentStatusCode: models.PaymentStatusPending,
			StatusCode:        models.SaleStatusPending,
			Notes:             req.Notes,
			TableNumber:       req.TableNumber,
			IsTakeAway:        req.IsTakeAway,
			CustomerName:      req.CustomerName,
			CustomerPhone:     req.CustomerPhone,
		}
		if req.PaymentStatusCode != "" {
			sale.PaymentStatusCode = req.PaymentStatusCode
		}
		applyHeaderAmounts(&sale, req)
		for _, itemReq := range req.Items {
			item, err := buildItem(itemReq)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			sale.Items = append(sale.Items, item)
		}
		sale.RecalculateTotals()
		sale.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create sale")
		}

		writeSaleAudit(c, models.AuditActionCreate, sale.ID, "Created sale "+sale.Reference, nil, sale)
		database.DB.Preload("Customer").Preload("Items").First(&sale, sale.ID)
		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

func UpdateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.Preload("Items").First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		if sale.StatusCode != models.SaleStatusPending {
			return fiber.NewError(fiber.StatusConflict, "Only pending sales can be edited")
		}
		before := sale

		var req SaleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.PaymentMethodCode != "" {
			if err := validatePaymentMethod(req.PaymentMethodCode); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			sale.PaymentMethodCode = req.PaymentMethodCode
		}
		if req.PaymentStatusCode != "" {
			if err := validateSaleStatusCodes(req.PaymentStatusCode, ""); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			sale.PaymentStatusCode = req.PaymentStatusCode
		}
		if req.CustomerID != nil {
			sale.CustomerID = req.CustomerID
		}
		if req.Notes != "" {
			sale.Notes = req.Notes
		}
		if req.TableNumber != "" {
			sale.TableNumber = req.TableNumber
		}
		if req.CustomerName != "" {
			sale.CustomerName = req.CustomerName
		}
		if req.CustomerPhone != "" {
			sale.CustomerPhone = req.CustomerPhone
		}
		applyHeaderAmounts(&sale, req)
		sale.StampUpdated(auth.ActorID(c))

		if req.Items != nil {
			var items []models.SaleItem
			for _, itemReq := range req.Items {
				item, err := buildItem(itemReq)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, err.Error())
				}
				item.SaleID = sale.ID
				items = append(items, item)
			}

			tx := database.DB.Begin()
			if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not replace sale items")
			}
			sale.Items = items
			if err := tx.Save(&sale).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale")
			}
			if err := tx.Commit().Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale")
			}
		} else {
			if err := database.DB.Save(&sale).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale")
			}
		}

		writeSaleAudit(c, models.AuditActionUpdate, sale.ID, "Updated sale "+sale.Reference, before, sale)
		database.DB.Preload("Customer").Preload("Items").First(&sale, sale.ID)
		return c.JSON(sale)
	}
}

func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		if sale.StatusCode == models.SaleStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "Completed sales cannot be deleted; stock was already debited")
		}

		tx := database.DB.Begin()
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sale")
		}
		if err := tx.Delete(&sale).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sale")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sale")
		}

		writeSaleAudit(c, models.AuditActionDelete, sale.ID, "Deleted sale "+sale.Reference, sale, nil)
		return c.JSON(fiber.Map{"message": "Sale deleted"})
	}
}

// CompleteSaleHandler finalizes a pending sale and debits stock for every
// line. Each decrement is conditional on sufficient stock, so a concurrent
// sale of the last units makes exactly one of the two requests fail, and
// the failing one rolls back in full.
func CompleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.Preload("Items").First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		if sale.StatusCode == models.SaleStatusCompleted || sale.StatusCode == models.SaleStatusCancelled {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sale %s is already %s", sale.Reference, sale.StatusCode))
		}
		if len(sale.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sale has no items")
		}

		before := sale
		tx := database.DB.Begin()

		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status_code NOT IN ?", sale.ID,
				[]string{models.SaleStatusCompleted, models.SaleStatusCancelled}).
			Updates(map[string]any{
				"status_code":         models.SaleStatusCompleted,
				"payment_status_code": models.PaymentStatusPaid,
				"updated_by":          auth.ActorID(c),
			})
		if res.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not complete sale")
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Sale was already completed or cancelled")
		}

		for _, item := range sale.Items {
			dec := tx.Model(&models.Product{}).
				Where("id = ? AND current_stock >= ?", item.ProductID, item.Quantity).
				Update("current_stock", gorm.Expr("current_stock - ?", item.Quantity))
			if dec.Error != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not debit stock")
			}
			if dec.RowsAffected == 0 {
				tx.Rollback()
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Insufficient stock for %s", item.ProductName))
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not complete sale")
		}

		sale.StatusCode = models.SaleStatusCompleted
		sale.PaymentStatusCode = models.PaymentStatusPaid
		writeSaleAudit(c, models.AuditActionUpdate, sale.ID,
			fmt.Sprintf("Completed sale %s (%d items debited)", sale.Reference, len(sale.Items)),
			before, sale)

		database.DB.Preload("Customer").Preload("Items").First(&sale, sale.ID)
		return c.JSON(sale)
	}
}

// CancelSaleHandler cancels a non-terminal sale. Stock is not restocked;
// completed sales stay completed.
func CancelSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		if sale.StatusCode == models.SaleStatusCompleted || sale.StatusCode == models.SaleStatusCancelled {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sale %s is already %s", sale.Reference, sale.StatusCode))
		}

		var req CancelRequest
		_ = c.BodyParser(&req)

		before := sale
		sale.StatusCode = models.SaleStatusCancelled
		if req.Reason != "" {
			if sale.Notes != "" {
				sale.Notes += " | "
			}
			sale.Notes += "Cancelled: " + req.Reason
		}
		sale.StampUpdated(auth.ActorID(c))
		if err := database.DB.Save(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not cancel sale")
		}

		writeSaleAudit(c, models.AuditActionUpdate, sale.ID, "Cancelled sale "+sale.Reference, before, sale)
		return c.JSON(sale)
	}
}

// ValidateSaleHandler is a dry run: it checks the lines and stock levels
// and prices the sale without persisting anything.
func ValidateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SaleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(req.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "A sale needs at least one item")
		}

		problems := []string{}
		var sale models.Sale
		applyHeaderAmounts(&sale, req)
		for _, itemReq := range req.Items {
			item, err := buildItem(itemReq)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			var product models.Product
			database.DB.First(&product, "id = ?", item.ProductID)
			if product.CurrentStock < item.Quantity {
				problems = append(problems,
					fmt.Sprintf("insufficient stock for %s (have %.2f, need %.2f)",
						product.Name, product.CurrentStock, item.Quantity))
			}
			sale.Items = append(sale.Items, item)
		}
		if req.PaymentMethodCode != "" {
			if err := validatePaymentMethod(req.PaymentMethodCode); err != nil {
				problems = append(problems, err.Error())
			}
		}
		sale.RecalculateTotals()

		return c.JSON(fiber.Map{
			"valid":           len(problems) == 0,
			"problems":        problems,
			"subtotal":        sale.Subtotal,
			"discount_amount": sale.DiscountAmount,
			"tax_amount":      sale.TaxAmount,
			"total_amount":    sale.TotalAmount,
		})
	}
}

func writeSaleAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, desc string, before, after any) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.FullName(),
		EntityType:  "sale",
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
