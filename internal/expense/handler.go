// Package expense handles operating expenses and the recurring templates
// that generate them.
package expense

import (
	"fmt"
	"strings"
	"time"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/reference"

	"github.com/gofiber/fiber/v2"
)

type ExpenseRequest struct {
	Description       string   `json:"description"`
	CategoryCode      string   `json:"category"`
	Amount            *float64 `json:"amount"`
	TaxAmount         *float64 `json:"tax_amount"`
	ExpenseDate       string   `json:"expense_date"`
	DueDate           string   `json:"due_date"`
	PaymentMethodCode string   `json:"payment_method"`
	StatusCode        string   `json:"status"`
	ReceiptURL        string   `json:"receipt_url"`
	Notes             string   `json:"notes"`
	SupplierID        *uint    `json:"supplier_id"`
}

type MarkPaidRequest struct {
	PaymentMethodCode string `json:"payment_method"`
	PaymentDate       string `json:"payment_date"`
}

func validateCategory(code string) error {
	if code == "" {
		return fmt.Errorf("category is required")
	}
	var count int64
	database.DB.Model(&models.ExpenseCategory{}).Where("code = ?", code).Count(&count)
	if count == 0 {
		return fmt.Errorf("unknown expense category %q", code)
	}
	return nil
}

func validateStatus(code string) error {
	var count int64
	database.DB.Model(&models.ExpenseStatus{}).Where("code = ?", code).Count(&count)
	if count == 0 {
		return fmt.Errorf("unknown expense status %q", code)
	}
	return nil
}

func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Supplier").Order("expense_date DESC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status_code = ?", status)
		}
		if category := c.Query("category"); category != "" {
			q = q.Where("category_code = ?", category)
		}
		if supplier := c.Query("supplier_id"); supplier != "" {
			q = q.Where("supplier_id = ?", supplier)
		}

		var expenses []models.Expense
		if err := q.Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
		}
		return c.JSON(expenses)
	}
}

func GetExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expense models.Expense
		if err := database.DB.Preload("Supplier").First(&expense, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}
		return c.JSON(expense)
	}
}

func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Description) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "description is required")
		}
		if err := validateCategory(req.CategoryCode); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Amount == nil || *req.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
		}
		if req.TaxAmount != nil && *req.TaxAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tax_amount cannot be negative")
		}
		if req.SupplierID != nil {
			var count int64
			database.DB.Model(&models.Supplier{}).Where("id = ?", *req.SupplierID).Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown supplier")
			}
		}

		expenseDate := time.Now()
		if req.ExpenseDate != "" {
			d, err := time.Parse("2006-01-02", req.ExpenseDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expense_date must be YYYY-MM-DD")
			}
			expenseDate = d
		}

		expense := models.Expense{
			Reference:         reference.New(reference.PrefixExpense),
			Description:       strings.TrimSpace(req.Description),
			CategoryCode:      req.CategoryCode,
			Amount:            *req.Amount,
			ExpenseDate:       expenseDate,
			PaymentMethodCode: req.PaymentMethodCode,
			StatusCode:        models.ExpenseStatusPending,
			ReceiptURL:        req.ReceiptURL,
			Notes:             req.Notes,
			SupplierID:        req.SupplierID,
		}
		if req.TaxAmount != nil {
			expense.TaxAmount = *req.TaxAmount
		}
		if req.StatusCode != "" {
			if err := validateStatus(req.StatusCode); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			expense.StatusCode = req.StatusCode
		}
		if req.DueDate != "" {
			d, err := time.Parse("2006-01-02", req.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
			}
			expense.DueDate = &d
		}
		expense.Recalculate()
		expense.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create expense")
		}

		writeExpenseAudit(c, models.AuditActionCreate, expense.ID, "Created expense "+expense.Reference, nil, expense)
		return c.Status(fiber.StatusCreated).JSON(expense)
	}
}

func UpdateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expense models.Expense
		if err := database.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}
		if expense.StatusCode == models.ExpenseStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "Paid expenses cannot be edited")
		}
		before := expense

		var req ExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.Description) != "" {
			expense.Description = strings.TrimSpace(req.Description)
		}
		if req.CategoryCode != "" {
			if err := validateCategory(req.CategoryCode); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			expense.CategoryCode = req.CategoryCode
		}
		if req.Amount != nil {
			if *req.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
			}
			expense.Amount = *req.Amount
		}
		if req.TaxAmount != nil {
			if *req.TaxAmount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "tax_amount cannot be negative")
			}
			expense.TaxAmount = *req.TaxAmount
		}
		if req.ExpenseDate != "" {
			d, err := time.Parse("2006-01-02", req.ExpenseDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expense_date must be YYYY-MM-DD")
			}
			expense.ExpenseDate = d
		}
		if req.DueDate != "" {
			d, err := time.Parse("2006-01-02", req.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
			}
			expense.DueDate = &d
		}
		if req.PaymentMethodCode != "" {
			expense.PaymentMethodCode = req.PaymentMethodCode
		}
		if req.StatusCode != "" {
			if err := validateStatus(req.StatusCode); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			expense.StatusCode = req.StatusCode
		}
		if req.ReceiptURL != "" {
			expense.ReceiptURL = req.ReceiptURL
		}
		if req.Notes != "" {
			expense.Notes = req.Notes
		}
		if req.SupplierID != nil {
			expense.SupplierID = req.SupplierID
		}
		expense.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update expense")
		}

		writeExpenseAudit(c, models.AuditActionUpdate, expense.ID, "Updated expense "+expense.Reference, before, expense)
		return c.JSON(expense)
	}
}

func DeleteExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expense models.Expense
		if err := database.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}
		if expense.StatusCode == models.ExpenseStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "Paid expenses cannot be deleted")
		}

		if err := database.DB.Delete(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete expense")
		}

		writeExpenseAudit(c, models.AuditActionDelete, expense.ID, "Deleted expense "+expense.Reference, expense, nil)
		return c.JSON(fiber.Map{"message": "Expense deleted"})
	}
}

// MarkExpensePaidHandler settles an expense. Paying twice is a conflict.
func MarkExpensePaidHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expense models.Expense
		if err := database.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}
		if expense.StatusCode == models.ExpenseStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "Expense is already paid")
		}
		if expense.StatusCode == models.ExpenseStatusCancelled {
			return fiber.NewError(fiber.StatusConflict, "Cancelled expenses cannot be paid")
		}

		var req MarkPaidRequest
		_ = c.BodyParser(&req)

		before := expense
		paymentDate := time.Now()
		if req.PaymentDate != "" {
			d, err := time.Parse("2006-01-02", req.PaymentDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "payment_date must be YYYY-MM-DD")
			}
			paymentDate = d
		}

		expense.StatusCode = models.ExpenseStatusPaid
		expense.PaymentDate = &paymentDate
		if req.PaymentMethodCode != "" {
			expense.PaymentMethodCode = req.PaymentMethodCode
		}
		expense.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not mark expense as paid")
		}

		writeExpenseAudit(c, models.AuditActionUpdate, expense.ID, "Paid expense "+expense.Reference, before, expense)
		return c.JSON(expense)
	}
}

// OverdueExpensesHandler lists unpaid expenses whose due date has passed.
func OverdueExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expenses []models.Expense
		if err := database.DB.Preload("Supplier").
			Where("due_date IS NOT NULL AND due_date < ? AND status_code NOT IN ?",
				time.Now(), []string{models.ExpenseStatusPaid, models.ExpenseStatusCancelled}).
			Order("due_date").
			Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list overdue expenses")
		}

		var total float64
		for _, e := range expenses {
			total += e.TotalAmount
		}
		return c.JSON(fiber.Map{"count": len(expenses), "total": total, "expenses": expenses})
	}
}

// ExpensesByDateRangeHandler filters expenses on expense_date.
func ExpensesByDateRangeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		var expenses []models.Expense
		if err := database.DB.Preload("Supplier").
			Where("expense_date >= ? AND expense_date < ?", start, end).
			Order("expense_date DESC").
			Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
		}
		return c.JSON(expenses)
	}
}

// ExpensesSummaryHandler aggregates expenses over a window grouped by
// category and status.
func ExpensesSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		type groupRow struct {
			Key   string  `json:"key"`
			Count int64   `json:"count"`
			Total float64 `json:"total"`
		}

		var byCategory []groupRow
		database.DB.Model(&models.Expense{}).
			Where("expense_date >= ? AND expense_date < ?", start, end).
			Select("category_code AS key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("category_code").
			Order("total DESC").
			Scan(&byCategory)

		var byStatus []groupRow
		database.DB.Model(&models.Expense{}).
			Where("expense_date >= ? AND expense_date < ?", start, end).
			Select("status_code AS key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("status_code").
			Scan(&byStatus)

		var grand float64
		var count int64
		for _, r := range byStatus {
			grand += r.Total
			count += r.Count
		}

		return c.JSON(fiber.Map{
			"start_date":  start.Format("2006-01-02"),
			"end_date":    end.AddDate(0, 0, -1).Format("2006-01-02"),
			"total":       grand,
			"count":       count,
			"by_category": byCategory,
			"by_status":   byStatus,
		})
	}
}

func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if s := c.Query("start_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		start = d
	}
	if s := c.Query("end_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		end = d
	}
	if end.Before(start) {
		return start, end, fiber.NewError(fiber.StatusBadRequest, "end_date cannot be before start_date")
	}
	return startOfDay(start), startOfDay(end).AddDate(0, 0, 1), nil
}

// startOfDay returns midnight in t's location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func writeExpenseAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, desc string, before, after any) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.FullName(),
		EntityType:  "expense",
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
