// Package reports aggregates the transactional tables into management
// figures: dashboards, analytics, exports and housekeeping.
package reports

import (
	"time"

	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

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

func sumSales(start, end time.Time) (float64, int64) {
	type row struct {
		Total float64
		Count int64
	}
	var r row
	database.DB.Model(&models.Sale{}).
		Where("sale_date >= ? AND sale_date < ? AND status_code = ?", start, end, models.SaleStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Scan(&r)
	return r.Total, r.Count
}

func sumExpenses(start, end time.Time) (float64, int64) {
	type row struct {
		Total float64
		Count int64
	}
	var r row
	database.DB.Model(&models.Expense{}).
		Where("expense_date >= ? AND expense_date < ? AND status_code <> ?", start, end, models.ExpenseStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Scan(&r)
	return r.Total, r.Count
}

// growthPercent: month-over-month change. A zero previous period with a
// non-zero current one reads as 100% growth.
func growthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (current - previous) / previous * 100
}

// BusinessStatsHandler is the headline dashboard feed: revenue, expenses,
// net result and operational counters for a window.
func BusinessStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		revenue, saleCount := sumSales(start, end)
		expenses, expenseCount := sumExpenses(start, end)

		var pendingSales int64
		database.DB.Model(&models.Sale{}).
			Where("status_code = ?", models.SaleStatusPending).Count(&pendingSales)

		var pendingEntries int64
		database.DB.Model(&models.Entry{}).
			Where("status IN ?", []models.EntryStatus{models.EntryStatusDraft, models.EntryStatusPending}).
			Count(&pendingEntries)

		var lowStock int64
		database.DB.Model(&models.Product{}).
			Where("is_active = true AND current_stock <= alert_threshold").Count(&lowStock)

		var customers int64
		database.DB.Model(&models.Customer{}).Where("is_active = true").Count(&customers)

		return c.JSON(fiber.Map{
			"start_date":      start.Format("2006-01-02"),
			"end_date":        end.AddDate(0, 0, -1).Format("2006-01-02"),
			"revenue":         revenue,
			"sale_count":      saleCount,
			"expenses":        expenses,
			"expense_count":   expenseCount,
			"net_result":      revenue - expenses,
			"pending_sales":   pendingSales,
			"pending_entries": pendingEntries,
			"low_stock_count": lowStock,
			"active_customers": customers,
		})
	}
}

// FinancialDashboardHandler compares the current month against the
// previous one and breaks expenses down by category.
func FinancialDashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prevStart := monthStart.AddDate(0, -1, 0)
		nextStart := monthStart.AddDate(0, 1, 0)

		curRevenue, _ := sumSales(monthStart, nextStart)
		prevRevenue, _ := sumSales(prevStart, monthStart)
		curExpenses, _ := sumExpenses(monthStart, nextStart)
		prevExpenses, _ := sumExpenses(prevStart, monthStart)

		type categoryRow struct {
			Category string  `json:"category"`
			Total    float64 `json:"total"`
		}
		var categories []categoryRow
		database.DB.Model(&models.Expense{}).
			Where("expense_date >= ? AND expense_date < ? AND status_code <> ?",
				monthStart, nextStart, models.ExpenseStatusCancelled).
			Select("category_code AS category, COALESCE(SUM(total_amount), 0) AS total").
			Group("category_code").
			Order("total DESC").
			Scan(&categories)

		var unpaidTotal float64
		database.DB.Model(&models.Expense{}).
			Where("status_code NOT IN ?", []string{models.ExpenseStatusPaid, models.ExpenseStatusCancelled}).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&unpaidTotal)

		return c.JSON(fiber.Map{
			"month": monthStart.Format("2006-01"),
			"revenue": fiber.Map{
				"current":        curRevenue,
				"previous":       prevRevenue,
				"growth_percent": growthPercent(curRevenue, prevRevenue),
			},
			"expenses": fiber.Map{
				"current":        curExpenses,
				"previous":       prevExpenses,
				"growth_percent": growthPercent(curExpenses, prevExpenses),
			},
			"net_result":           curRevenue - curExpenses,
			"expenses_by_category": categories,
			"unpaid_expenses":      unpaidTotal,
		})
	}
}

// InventoryDashboardHandler summarizes the stock position.
func InventoryDashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type valueRow struct {
			TotalProducts int64   `json:"total_products"`
			TotalUnits    float64 `json:"total_units"`
			PurchaseValue float64 `json:"purchase_value"`
			SellingValue  float64 `json:"selling_value"`
		}
		var value valueRow
		database.DB.Model(&models.Product{}).
			Where("is_active = true").
			Select("COUNT(*) AS total_products, " +
				"COALESCE(SUM(current_stock), 0) AS total_units, " +
				"COALESCE(SUM(current_stock * purchase_price), 0) AS purchase_value, " +
				"COALESCE(SUM(current_stock * selling_price), 0) AS selling_value").
			Scan(&value)

		var outOfStock, lowStock int64
		database.DB.Model(&models.Product{}).
			Where("is_active = true AND current_stock <= 0").Count(&outOfStock)
		database.DB.Model(&models.Product{}).
			Where("is_active = true AND current_stock > 0 AND current_stock <= alert_threshold").Count(&lowStock)

		monthStart := time.Now().AddDate(0, 0, -30)
		var recentEntries int64
		var recentEntryTotal float64
		database.DB.Model(&models.Entry{}).
			Where("entry_date >= ? AND status = ?", monthStart, models.EntryStatusCompleted).
			Count(&recentEntries)
		database.DB.Model(&models.Entry{}).
			Where("entry_date >= ? AND status = ?", monthStart, models.EntryStatusCompleted).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&recentEntryTotal)

		return c.JSON(fiber.Map{
			"total_products":       value.TotalProducts,
			"total_units":          value.TotalUnits,
			"purchase_value":       value.PurchaseValue,
			"selling_value":        value.SellingValue,
			"potential_margin":     value.SellingValue - value.PurchaseValue,
			"out_of_stock_count":   outOfStock,
			"low_stock_count":      lowStock,
			"entries_last_30_days": recentEntries,
			"entry_value_30_days":  recentEntryTotal,
		})
	}
}

// LowStockReportHandler grades low-stock products into alert levels and
// suggests an order quantity. threshold_multiplier widens the net: at 2.0
// anything below twice its alert threshold shows up.
func LowStockReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		multiplier := c.QueryFloat("threshold_multiplier", 1.0)
		if multiplier < 1.0 || multiplier > 10.0 {
			multiplier = 1.0
		}

		var products []models.Product
		if err := database.DB.Preload("Category").Preload("Unit").
			Where("is_active = true AND current_stock <= alert_threshold * ?", multiplier).
			Order("current_stock").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build low stock report")
		}

		type alertRow struct {
			Product       models.Product `json:"product"`
			Level         string         `json:"level"`
			SuggestedQty  float64        `json:"suggested_order_qty"`
			EstimatedCost float64        `json:"estimated_cost"`
		}

		alerts := make([]alertRow, 0, len(products))
		counts := map[string]int{}
		for _, p := range products {
			level := "warning"
			switch {
			case p.CurrentStock <= 0:
				level = "critical"
			case p.CurrentStock <= p.AlertThreshold/2:
				level = "urgent"
			}
			counts[level]++

			// Order up to twice the threshold so one delivery clears the alert
			// with headroom.
			suggested := p.AlertThreshold*2 - p.CurrentStock
			if suggested < 0 {
				suggested = 0
			}
			alerts = append(alerts, alertRow{
				Product:       p,
				Level:         level,
				SuggestedQty:  suggested,
				EstimatedCost: suggested * p.PurchasePrice,
			})
		}

		var totalCost float64
		for _, a := range alerts {
			totalCost += a.EstimatedCost
		}

		return c.JSON(fiber.Map{
			"threshold_multiplier": multiplier,
			"total_alerts":         len(alerts),
			"critical":             counts["critical"],
			"urgent":               counts["urgent"],
			"warning":              counts["warning"],
			"estimated_order_cost": totalCost,
			"alerts":               alerts,
		})
	}
}

// CustomerAnalyticsHandler segments customers by completed-sale count and
// measures retention over the window.
func CustomerAnalyticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		type customerRow struct {
			CustomerID uint    `json:"customer_id"`
			FirstName  string  `json:"first_name"`
			LastName   string  `json:"last_name"`
			SaleCount  int64   `json:"sale_count"`
			TotalSpent float64 `json:"total_spent"`
		}

		var rows []customerRow
		database.DB.Model(&models.Sale{}).
			Joins("JOIN customers ON customers.id = sales.customer_id").
			Where("sales.sale_date >= ? AND sales.sale_date < ? AND sales.status_code = ?",
				start, end, models.SaleStatusCompleted).
			Select("sales.customer_id, customers.first_name, customers.last_name, " +
				"COUNT(*) AS sale_count, SUM(sales.total_amount) AS total_spent").
			Group("sales.customer_id, customers.first_name, customers.last_name").
			Order("total_spent DESC").
			Scan(&rows)

		type segment struct {
			Count     int           `json:"count"`
			Revenue   float64       `json:"revenue"`
			Customers []customerRow `json:"customers"`
		}
		vip := segment{Customers: []customerRow{}}
		regular := segment{Customers: []customerRow{}}
		occasional := segment{Customers: []customerRow{}}

		returning := 0
		for _, r := range rows {
			switch {
			case r.SaleCount >= 10:
				vip.Count++
				vip.Revenue += r.TotalSpent
				vip.Customers = append(vip.Customers, r)
			case r.SaleCount >= 3:
				regular.Count++
				regular.Revenue += r.TotalSpent
				regular.Customers = append(regular.Customers, r)
			default:
				occasional.Count++
				occasional.Revenue += r.TotalSpent
				occasional.Customers = append(occasional.Customers, r)
			}
			if r.SaleCount > 1 {
				returning++
			}
		}

		retention := 0.0
		if len(rows) > 0 {
			retention = float64(returning) / float64(len(rows)) * 100
		}

		var anonymousSales int64
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ? AND status_code = ? AND customer_id IS NULL",
				start, end, models.SaleStatusCompleted).
			Count(&anonymousSales)

		return c.JSON(fiber.Map{
			"start_date":        start.Format("2006-01-02"),
			"end_date":          end.AddDate(0, 0, -1).Format("2006-01-02"),
			"identified_buyers": len(rows),
			"retention_percent": retention,
			"anonymous_sales":   anonymousSales,
			"vip":               vip,
			"regular":           regular,
			"occasional":        occasional,
		})
	}
}
