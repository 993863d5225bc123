package expense

import (
	"fmt"
	"strings"
	"time"

	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/reference"

	"github.com/gofiber/fiber/v2"
)

type RecurringExpenseRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	CategoryCode string   `json:"category"`
	Amount       *float64 `json:"amount"`
	Frequency    string   `json:"frequency"`
	NextDueDate  string   `json:"next_due_date"`
	IsActive     *bool    `json:"is_active"`
}

func ListRecurringExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("next_due_date")
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		var templates []models.RecurringExpense
		if err := q.Find(&templates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list recurring expenses")
		}
		return c.JSON(templates)
	}
}

func GetRecurringExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var template models.RecurringExpense
		if err := database.DB.First(&template, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recurring expense not found")
		}
		return c.JSON(template)
	}
}

func CreateRecurringExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RecurringExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if err := validateCategory(req.CategoryCode); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Amount == nil || *req.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
		}
		frequency := models.Frequency(req.Frequency)
		if !models.ValidFrequency(frequency) {
			return fiber.NewError(fiber.StatusBadRequest, "frequency must be WEEKLY, MONTHLY, QUARTERLY or YEARLY")
		}
		if req.NextDueDate == "" {
			return fiber.NewError(fiber.StatusBadRequest, "next_due_date is required")
		}
		nextDue, err := time.Parse("2006-01-02", req.NextDueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "next_due_date must be YYYY-MM-DD")
		}

		template := models.RecurringExpense{
			Name:         strings.TrimSpace(req.Name),
			Description:  req.Description,
			CategoryCode: req.CategoryCode,
			Amount:       *req.Amount,
			Frequency:    frequency,
			NextDueDate:  nextDue,
			IsActive:     true,
		}
		template.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&template).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create recurring expense")
		}
		return c.Status(fiber.StatusCreated).JSON(template)
	}
}

func UpdateRecurringExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var template models.RecurringExpense
		if err := database.DB.First(&template, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recurring expense not found")
		}

		var req RecurringExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.Name) != "" {
			template.Name = strings.TrimSpace(req.Name)
		}
		if req.Description != "" {
			template.Description = req.Description
		}
		if req.CategoryCode != "" {
			if err := validateCategory(req.CategoryCode); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			template.CategoryCode = req.CategoryCode
		}
		if req.Amount != nil {
			if *req.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
			}
			template.Amount = *req.Amount
		}
		if req.Frequency != "" {
			frequency := models.Frequency(req.Frequency)
			if !models.ValidFrequency(frequency) {
				return fiber.NewError(fiber.StatusBadRequest, "frequency must be WEEKLY, MONTHLY, QUARTERLY or YEARLY")
			}
			template.Frequency = frequency
		}
		if req.NextDueDate != "" {
			d, err := time.Parse("2006-01-02", req.NextDueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "next_due_date must be YYYY-MM-DD")
			}
			template.NextDueDate = d
		}
		if req.IsActive != nil {
			template.IsActive = *req.IsActive
		}
		template.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&template).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update recurring expense")
		}
		return c.JSON(template)
	}
}

func DeleteRecurringExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var template models.RecurringExpense
		if err := database.DB.First(&template, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recurring expense not found")
		}

		// Generated expenses keep their template id for traceability, so the
		// template is deactivated once it has been used.
		var count int64
		database.DB.Model(&models.Expense{}).Where("recurring_expense_id = ?", template.ID).Count(&count)
		if count > 0 {
			template.IsActive = false
			template.StampUpdated(auth.ActorID(c))
			if err := database.DB.Save(&template).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate recurring expense")
			}
			return c.JSON(fiber.Map{"message": "Template has generated expenses; deactivated instead of deleted"})
		}

		if err := database.DB.Delete(&template).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete recurring expense")
		}
		return c.JSON(fiber.Map{"message": "Recurring expense deleted"})
	}
}

// DueSoonHandler lists active templates due within ?days (default 7).
func DueSoonHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", 7)
		if days < 1 || days > 365 {
			days = 7
		}
		horizon := time.Now().AddDate(0, 0, days)

		var templates []models.RecurringExpense
		if err := database.DB.
			Where("is_active = true AND next_due_date <= ?", horizon).
			Order("next_due_date").
			Find(&templates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list due templates")
		}
		return c.JSON(fiber.Map{"days": days, "count": len(templates), "templates": templates})
	}
}

// GenerateExpenseHandler materializes one concrete expense from a template
// and advances the schedule. A template generates at most once per period.
func GenerateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var template models.RecurringExpense
		if err := database.DB.First(&template, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recurring expense not found")
		}
		if !template.IsActive {
			return fiber.NewError(fiber.StatusConflict, "Template is inactive")
		}

		today := startOfDay(time.Now())
		if !template.CanGenerate(today) {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("An expense was already generated for this period (last: %s)",
					template.LastGeneratedDate.Format("2006-01-02")))
		}

		dueDate := template.NextDueDate
		generated := models.Expense{
			Reference:          reference.New(reference.PrefixExpense),
			Description:        template.Name,
			CategoryCode:       template.CategoryCode,
			Amount:             template.Amount,
			ExpenseDate:        today,
			DueDate:            &dueDate,
			StatusCode:         models.ExpenseStatusPending,
			RecurringExpenseID: &template.ID,
		}
		if template.Description != "" {
			generated.Notes = template.Description
		}
		generated.Recalculate()
		generated.StampCreated(auth.ActorID(c))

		tx := database.DB.Begin()
		if err := tx.Create(&generated).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate expense")
		}
		template.Advance(today)
		template.StampUpdated(auth.ActorID(c))
		if err := tx.Save(&template).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not advance schedule")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate expense")
		}

		writeExpenseAudit(c, models.AuditActionCreate, generated.ID,
			fmt.Sprintf("Generated expense %s from template %s", generated.Reference, template.Name),
			nil, generated)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"expense":  generated,
			"template": template,
		})
	}
}
