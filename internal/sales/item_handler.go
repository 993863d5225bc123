package sales

import (
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Sale lines are editable only while the parent sale is pending; completed
// sales keep the lines that drove the stock debit.

func loadPendingSale(saleID any) (*models.Sale, error) {
	var sale models.Sale
	if err := database.DB.First(&sale, "id = ?", saleID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sale not found")
	}
	if sale.StatusCode != models.SaleStatusPending {
		return nil, fiber.NewError(fiber.StatusConflict, "Only pending sales can be edited")
	}
	return &sale, nil
}

// syncSaleTotals reloads the lines and rewrites the header amounts.
func syncSaleTotals(saleID uint, actor *uint) error {
	var sale models.Sale
	if err := database.DB.Preload("Items").First(&sale, saleID).Error; err != nil {
		return err
	}
	sale.RecalculateTotals()
	return database.DB.Model(&models.Sale{}).Where("id = ?", saleID).
		Updates(map[string]any{
			"subtotal":     sale.Subtotal,
			"total_amount": sale.TotalAmount,
			"updated_by":   actor,
		}).Error
}

func ListSaleItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}

		var items []models.SaleItem
		if err := database.DB.Preload("Product").
			Where("sale_id = ?", sale.ID).
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sale items")
		}
		return c.JSON(items)
	}
}

func CreateSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sale, err := loadPendingSale(c.Params("id"))
		if err != nil {
			return err
		}

		var req SaleItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		item, err := buildItem(req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		item.SaleID = sale.ID
		item.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not add sale item")
		}
		if err := syncSaleTotals(sale.ID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale totals")
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

func UpdateSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item models.SaleItem
		if err := database.DB.First(&item, "id = ?", c.Params("itemId")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale item not found")
		}
		if _, err := loadPendingSale(item.SaleID); err != nil {
			return err
		}

		var req SaleItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Quantity > 0 {
			item.Quantity = req.Quantity
		}
		if err := applyItemPricing(&item, req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		item.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale item")
		}
		if err := syncSaleTotals(item.SaleID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale totals")
		}
		return c.JSON(item)
	}
}

func DeleteSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item models.SaleItem
		if err := database.DB.First(&item, "id = ?", c.Params("itemId")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale item not found")
		}
		if _, err := loadPendingSale(item.SaleID); err != nil {
			return err
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sale item")
		}
		if err := syncSaleTotals(item.SaleID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update sale totals")
		}
		return c.JSON(fiber.Map{"message": "Sale item deleted"})
	}
}
