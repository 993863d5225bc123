// Package lookup serves the reference-data tables (statuses, types,
// categories, units, payment methods). Every table gets the same CRUD
// surface, so the handlers are generated from a resource descriptor
// instead of being written ten times.
package lookup

import (
	"encoding/json"
	"fmt"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Resource describes one reference-data table.
type Resource struct {
	// Route segment, e.g. "sale-statuses".
	Name string
	// Audit entity type, e.g. "sale_status".
	Entity string
	// NewModel returns a pointer to a zero value of the table's model.
	NewModel func() any
	// NewSlice returns a pointer to an empty slice of the model.
	NewSlice func() any
}

// Resources is the full reference-data catalog.
var Resources = []Resource{
	{"product-categories", "product_category",
		func() any { return &models.ProductCategory{} },
		func() any { return &[]models.ProductCategory{} }},
	{"product-units", "product_unit",
		func() any { return &models.ProductUnit{} },
		func() any { return &[]models.ProductUnit{} }},
	{"user-statuses", "user_status",
		func() any { return &models.UserStatus{} },
		func() any { return &[]models.UserStatus{} }},
	{"entry-types", "entry_type",
		func() any { return &models.EntryType{} },
		func() any { return &[]models.EntryType{} }},
	{"expense-categories", "expense_category",
		func() any { return &models.ExpenseCategory{} },
		func() any { return &[]models.ExpenseCategory{} }},
	{"expense-statuses", "expense_status",
		func() any { return &models.ExpenseStatus{} },
		func() any { return &[]models.ExpenseStatus{} }},
	{"payment-methods", "payment_method",
		func() any { return &models.PaymentMethod{} },
		func() any { return &[]models.PaymentMethod{} }},
	{"sale-statuses", "sale_status",
		func() any { return &models.SaleStatus{} },
		func() any { return &[]models.SaleStatus{} }},
	{"payment-statuses", "payment_status",
		func() any { return &models.PaymentStatus{} },
		func() any { return &[]models.PaymentStatus{} }},
}

// Updatable fields for every reference table. Anything else in the
// payload is ignored.
var allowedFields = map[string]bool{
	"name":         true,
	"code":         true,
	"description":  true,
	"abbreviation": true,
	"is_active":    true,
	"is_default":   true,
}

// RegisterRoutes mounts list/get/create/update/delete for every resource.
func RegisterRoutes(router fiber.Router) {
	for _, res := range Resources {
		res := res
		router.Get("/"+res.Name, ListHandler(res))
		router.Get("/"+res.Name+"/:id", GetHandler(res))
		router.Post("/"+res.Name, CreateHandler(res))
		router.Put("/"+res.Name+"/:id", UpdateHandler(res))
		router.Delete("/"+res.Name+"/:id", DeleteHandler(res))
	}
}

func ListHandler(res Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(res.NewModel()).Order("name")
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		out := res.NewSlice()
		if err := q.Find(out).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Could not list %s", res.Name))
		}
		return c.JSON(out)
	}
}

func GetHandler(res Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := res.NewModel()
		if err := database.DB.First(out, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", res.Entity))
		}
		return c.JSON(out)
	}
}

func CreateHandler(res Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields map[string]any
		if err := json.Unmarshal(c.Body(), &fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if name, _ := fields["name"].(string); name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		record := res.NewModel()
		if err := json.Unmarshal(c.Body(), record); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if s, ok := record.(interface{ StampCreated(*uint) }); ok {
			s.StampCreated(auth.ActorID(c))
		}

		if err := database.DB.Create(record).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Could not create %s (name/code must be unique)", res.Entity))
		}

		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.FullName(),
				EntityType:  res.Entity,
				EntityID:    recordID(record),
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Created %s", res.Entity),
				After:       record,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(record)
	}
}

func UpdateHandler(res Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		record := res.NewModel()
		if err := database.DB.First(record, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", res.Entity))
		}

		var fields map[string]any
		if err := json.Unmarshal(c.Body(), &fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updates := map[string]any{}
		for k, v := range fields {
			if allowedFields[k] {
				updates[k] = v
			}
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No updatable fields provided")
		}
		updates["updated_by"] = auth.ActorID(c)

		before := res.NewModel()
		_ = database.DB.First(before, "id = ?", c.Params("id")).Error

		if err := database.DB.Model(record).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Could not update %s", res.Entity))
		}

		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.FullName(),
				EntityType:  res.Entity,
				EntityID:    recordID(record),
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Updated %s", res.Entity),
				Before:      before,
				After:       record,
			})
		}

		return c.JSON(record)
	}
}

func DeleteHandler(res Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		record := res.NewModel()
		if err := database.DB.First(record, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", res.Entity))
		}

		if err := database.DB.Delete(record).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Could not delete %s (still referenced)", res.Entity))
		}

		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.FullName(),
				EntityType:  res.Entity,
				EntityID:    recordID(record),
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Deleted %s", res.Entity),
				Before:      record,
			})
		}

		return c.JSON(fiber.Map{"message": fmt.Sprintf("%s deleted", res.Entity)})
	}
}

// recordID pulls the primary key out of a marshalled record. All lookup
// models serialize their key as "id".
func recordID(record any) uint {
	b, err := json.Marshal(record)
	if err != nil {
		return 0
	}
	var probe struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return 0
	}
	return probe.ID
}
