package reports

import (
	"time"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NotificationsHandler collects the attention-needed items into one feed:
// low stock, overdue expenses and recurring templates about to fall due.
func NotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type notification struct {
			Kind    string `json:"kind"`
			Level   string `json:"level"`
			Message string `json:"message"`
			ID      uint   `json:"id"`
		}
		notifications := []notification{}

		var lowStock []models.Product
		database.DB.Where("is_active = true AND current_stock <= alert_threshold").
			Order("current_stock").Limit(50).Find(&lowStock)
		for _, p := range lowStock {
			level := "warning"
			if p.CurrentStock <= 0 {
				level = "critical"
			}
			notifications = append(notifications, notification{
				Kind:    "low_stock",
				Level:   level,
				Message: p.Name + " is low on stock",
				ID:      p.ID,
			})
		}

		var overdue []models.Expense
		database.DB.Where("due_date IS NOT NULL AND due_date < ? AND status_code NOT IN ?",
			time.Now(), []string{models.ExpenseStatusPaid, models.ExpenseStatusCancelled}).
			Order("due_date").Limit(50).Find(&overdue)
		for _, e := range overdue {
			notifications = append(notifications, notification{
				Kind:    "overdue_expense",
				Level:   "urgent",
				Message: "Expense " + e.Reference + " is overdue",
				ID:      e.ID,
			})
		}

		horizon := time.Now().AddDate(0, 0, 7)
		var dueSoon []models.RecurringExpense
		database.DB.Where("is_active = true AND next_due_date <= ?", horizon).
			Order("next_due_date").Limit(50).Find(&dueSoon)
		for _, r := range dueSoon {
			notifications = append(notifications, notification{
				Kind:    "recurring_due",
				Level:   "info",
				Message: r.Name + " falls due on " + r.NextDueDate.Format("2006-01-02"),
				ID:      r.ID,
			})
		}

		return c.JSON(fiber.Map{"count": len(notifications), "notifications": notifications})
	}
}

// HealthHandler reports database reachability and a few table counters.
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := database.DB.DB()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"status": "down", "database": "unreachable"})
		}
		if err := sqlDB.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"status": "down", "database": "unreachable"})
		}

		var products, sales, expenses int64
		database.DB.Model(&models.Product{}).Count(&products)
		database.DB.Model(&models.Sale{}).Count(&sales)
		database.DB.Model(&models.Expense{}).Count(&expenses)

		return c.JSON(fiber.Map{
			"status":   "ok",
			"database": "up",
			"time":     time.Now(),
			"counters": fiber.Map{
				"products": products,
				"sales":    sales,
				"expenses": expenses,
			},
		})
	}
}

type CleanupRequest struct {
	OlderThanDays int   `json:"older_than_days"`
	DryRun        *bool `json:"dry_run"`
}

// CleanupHandler removes cancelled sales and entries older than a cutoff.
// Dry run is the default; the caller has to opt in to actual deletion.
// Completed records are never touched.
func CleanupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CleanupRequest
		_ = c.BodyParser(&req)

		days := req.OlderThanDays
		if days < 90 {
			days = 365
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		dryRun := true
		if req.DryRun != nil {
			dryRun = *req.DryRun
		}

		var staleSales int64
		database.DB.Model(&models.Sale{}).
			Where("status_code = ? AND sale_date < ?", models.SaleStatusCancelled, cutoff).
			Count(&staleSales)
		var staleEntries int64
		database.DB.Model(&models.Entry{}).
			Where("status = ? AND entry_date < ?", models.EntryStatusCancelled, cutoff).
			Count(&staleEntries)

		if dryRun {
			return c.JSON(fiber.Map{
				"dry_run":         true,
				"cutoff":          cutoff.Format("2006-01-02"),
				"cancelled_sales": staleSales,
				"cancelled_entries": staleEntries,
			})
		}

		tx := database.DB.Begin()
		if err := tx.Where("sale_id IN (?)",
			tx.Model(&models.Sale{}).Select("id").
				Where("status_code = ? AND sale_date < ?", models.SaleStatusCancelled, cutoff)).
			Delete(&models.SaleItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Cleanup failed")
		}
		if err := tx.Where("status_code = ? AND sale_date < ?", models.SaleStatusCancelled, cutoff).
			Delete(&models.Sale{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Cleanup failed")
		}
		if err := tx.Where("entry_id IN (?)",
			tx.Model(&models.Entry{}).Select("id").
				Where("status = ? AND entry_date < ?", models.EntryStatusCancelled, cutoff)).
			Delete(&models.EntryItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Cleanup failed")
		}
		if err := tx.Where("status = ? AND entry_date < ?", models.EntryStatusCancelled, cutoff).
			Delete(&models.Entry{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Cleanup failed")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cleanup failed")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.FullName(),
				EntityType:  "system",
				Action:      models.AuditActionDelete,
				Description: "Cleaned up cancelled records older than " + cutoff.Format("2006-01-02"),
			})
		}

		return c.JSON(fiber.Map{
			"dry_run":           false,
			"cutoff":            cutoff.Format("2006-01-02"),
			"cancelled_sales":   staleSales,
			"cancelled_entries": staleEntries,
		})
	}
}
