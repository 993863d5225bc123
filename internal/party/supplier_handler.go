// Package party handles the people records: suppliers on the purchasing
// side, customers on the sales side.
package party

import (
	"strings"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SupplierRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	ContactPerson string `json:"contact_person"`
	Notes         string `json:"notes"`
	IsActive      *bool  `json:"is_active"`
}

func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("name")
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("name ILIKE ? OR contact_person ILIKE ?", like, like)
		}
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		var suppliers []models.Supplier
		if err := q.Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}
		return c.JSON(suppliers)
	}
}

func ActiveSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Where("is_active = true").Order("name").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}
		return c.JSON(suppliers)
	}
}

func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		return c.JSON(supplier)
	}
}

func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SupplierRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		supplier := models.Supplier{
			Name:          strings.TrimSpace(req.Name),
			Email:         req.Email,
			Phone:         req.Phone,
			Address:       req.Address,
			ContactPerson: req.ContactPerson,
			Notes:         req.Notes,
			IsActive:      true,
		}
		supplier.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create supplier")
		}

		writePartyAudit(c, "supplier", models.AuditActionCreate, supplier.ID,
			"Created supplier "+supplier.Name, nil, supplier)
		return c.Status(fiber.StatusCreated).JSON(supplier)
	}
}

func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		before := supplier

		var req SupplierRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.Name) != "" {
			supplier.Name = strings.TrimSpace(req.Name)
		}
		if req.Email != "" {
			supplier.Email = req.Email
		}
		if req.Phone != "" {
			supplier.Phone = req.Phone
		}
		if req.Address != "" {
			supplier.Address = req.Address
		}
		if req.ContactPerson != "" {
			supplier.ContactPerson = req.ContactPerson
		}
		if req.Notes != "" {
			supplier.Notes = req.Notes
		}
		if req.IsActive != nil {
			supplier.IsActive = *req.IsActive
		}
		supplier.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update supplier")
		}

		writePartyAudit(c, "supplier", models.AuditActionUpdate, supplier.ID,
			"Updated supplier "+supplier.Name, before, supplier)
		return c.JSON(supplier)
	}
}

func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var count int64
		database.DB.Model(&models.Entry{}).Where("supplier_id = ?", supplier.ID).Count(&count)
		if count == 0 {
			database.DB.Model(&models.Expense{}).Where("supplier_id = ?", supplier.ID).Count(&count)
		}
		if count > 0 {
			before := supplier
			supplier.IsActive = false
			supplier.StampUpdated(auth.ActorID(c))
			if err := database.DB.Save(&supplier).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate supplier")
			}
			writePartyAudit(c, "supplier", models.AuditActionUpdate, supplier.ID,
				"Deactivated supplier "+supplier.Name, before, supplier)
			return c.JSON(fiber.Map{"message": "Supplier has entries or expenses; deactivated instead of deleted"})
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete supplier")
		}
		writePartyAudit(c, "supplier", models.AuditActionDelete, supplier.ID,
			"Deleted supplier "+supplier.Name, supplier, nil)
		return c.JSON(fiber.Map{"message": "Supplier deleted"})
	}
}

// SupplierEntriesHandler lists stock entries received from one supplier.
func SupplierEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var entries []models.Entry
		if err := database.DB.Preload("Items").Preload("Items.Product").
			Where("supplier_id = ?", supplier.ID).
			Order("entry_date DESC").
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list supplier entries")
		}
		return c.JSON(entries)
	}
}

// SupplierExpensesHandler lists expenses billed by one supplier.
func SupplierExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var expenses []models.Expense
		if err := database.DB.Where("supplier_id = ?", supplier.ID).
			Order("expense_date DESC").
			Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list supplier expenses")
		}
		return c.JSON(expenses)
	}
}

func writePartyAudit(c *fiber.Ctx, entity string, action models.AuditAction, entityID uint, desc string, before, after any) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.FullName(),
		EntityType:  entity,
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
