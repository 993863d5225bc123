package inventory

import (
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Entry items are editable only while the parent entry is DRAFT or
// PENDING; after validation the lines are the record of what was credited.

func loadEditableEntry(entryID any) (*models.Entry, error) {
	var entry models.Entry
	if err := database.DB.First(&entry, "id = ?", entryID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Entry not found")
	}
	if entry.Status.Terminal() {
		return nil, fiber.NewError(fiber.StatusConflict, "Completed or cancelled entries cannot be edited")
	}
	return &entry, nil
}

// syncEntryTotal reloads the lines and rewrites the header total.
func syncEntryTotal(entryID uint, actor *uint) error {
	var entry models.Entry
	if err := database.DB.Preload("Items").First(&entry, entryID).Error; err != nil {
		return err
	}
	entry.RecalculateTotal()
	return database.DB.Model(&models.Entry{}).Where("id = ?", entryID).
		Updates(map[string]any{
			"total_amount": entry.TotalAmount,
			"updated_by":   actor,
		}).Error
}

func ListEntryItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}

		var items []models.EntryItem
		if err := database.DB.Preload("Product").
			Where("entry_id = ?", entry.ID).
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list entry items")
		}
		return c.JSON(items)
	}
}

func CreateEntryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entry, err := loadEditableEntry(c.Params("id"))
		if err != nil {
			return err
		}

		var req EntryItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		item, err := buildItem(req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		item.EntryID = entry.ID
		item.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not add entry item")
		}
		if err := syncEntryTotal(entry.ID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry total")
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

func UpdateEntryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item models.EntryItem
		if err := database.DB.First(&item, "id = ?", c.Params("itemId")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry item not found")
		}
		if _, err := loadEditableEntry(item.EntryID); err != nil {
			return err
		}

		var req EntryItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Quantity > 0 {
			item.Quantity = req.Quantity
		}
		if req.UnitPrice != nil {
			if *req.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_price cannot be negative")
			}
			item.UnitPrice = *req.UnitPrice
		}
		if req.BatchNumber != "" {
			item.BatchNumber = req.BatchNumber
		}
		item.Recalculate()
		item.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry item")
		}
		if err := syncEntryTotal(item.EntryID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry total")
		}
		return c.JSON(item)
	}
}

func DeleteEntryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item models.EntryItem
		if err := database.DB.First(&item, "id = ?", c.Params("itemId")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry item not found")
		}
		if _, err := loadEditableEntry(item.EntryID); err != nil {
			return err
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete entry item")
		}
		if err := syncEntryTotal(item.EntryID, auth.ActorID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry total")
		}
		return c.JSON(fiber.Map{"message": "Entry item deleted"})
	}
}
