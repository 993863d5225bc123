// Package dashboard serves thin server-rendered pages over the same
// aggregates the JSON API exposes. The pages are read-only.
package dashboard

import (
	"time"

	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// HomeHandler renders the overview page: today's takings, open work and
// stock alerts.
func HomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		type row struct {
			Total float64
			Count int64
		}
		var today row
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ? AND status_code = ?",
				dayStart, dayEnd, models.SaleStatusCompleted).
			Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
			Scan(&today)

		var pendingSales, pendingEntries, lowStock int64
		database.DB.Model(&models.Sale{}).
			Where("status_code = ?", models.SaleStatusPending).Count(&pendingSales)
		database.DB.Model(&models.Entry{}).
			Where("status IN ?", []models.EntryStatus{models.EntryStatusDraft, models.EntryStatusPending}).
			Count(&pendingEntries)
		database.DB.Model(&models.Product{}).
			Where("is_active = true AND current_stock <= alert_threshold").Count(&lowStock)

		return c.Render("dashboard", fiber.Map{
			"Title":          "Overview",
			"Date":           dayStart.Format("2006-01-02"),
			"TodayRevenue":   today.Total,
			"TodayCount":     today.Count,
			"PendingSales":   pendingSales,
			"PendingEntries": pendingEntries,
			"LowStockCount":  lowStock,
		})
	}
}

// InventoryHandler renders the stock page: valuation plus the alert list.
func InventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type valueRow struct {
			TotalProducts int64
			PurchaseValue float64
			SellingValue  float64
		}
		var value valueRow
		database.DB.Model(&models.Product{}).
			Where("is_active = true").
			Select("COUNT(*) AS total_products, " +
				"COALESCE(SUM(current_stock * purchase_price), 0) AS purchase_value, " +
				"COALESCE(SUM(current_stock * selling_price), 0) AS selling_value").
			Scan(&value)

		var lowStock []models.Product
		database.DB.Preload("Category").Preload("Unit").
			Where("is_active = true AND current_stock <= alert_threshold").
			Order("current_stock").Limit(50).Find(&lowStock)

		return c.Render("inventory", fiber.Map{
			"Title":         "Inventory",
			"TotalProducts": value.TotalProducts,
			"PurchaseValue": value.PurchaseValue,
			"SellingValue":  value.SellingValue,
			"LowStock":      lowStock,
		})
	}
}

// SalesHandler renders the sales page: the last 30 days and recent tickets.
func SalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		windowStart := time.Now().AddDate(0, 0, -30)

		type row struct {
			Total float64
			Count int64
		}
		var window row
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND status_code = ?", windowStart, models.SaleStatusCompleted).
			Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
			Scan(&window)

		var recent []models.Sale
		database.DB.Preload("Customer").
			Order("sale_date DESC").Limit(20).Find(&recent)

		return c.Render("sales", fiber.Map{
			"Title":         "Sales",
			"WindowRevenue": window.Total,
			"WindowCount":   window.Count,
			"Recent":        recent,
		})
	}
}
