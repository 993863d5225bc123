package sales

import (
	"time"

	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// startOfDay returns midnight in t's location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseDateRange reads start_date/end_date (YYYY-MM-DD, both inclusive) and
// returns [start, end+1d). Defaults to the last 30 days.
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

// SalesByDateRangeHandler filters sales on sale_date.
func SalesByDateRangeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		var sales []models.Sale
		if err := database.DB.Preload("Customer").Preload("Items").
			Where("sale_date >= ? AND sale_date < ?", start, end).
			Order("sale_date DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sales")
		}
		return c.JSON(sales)
	}
}

// TodaySalesHandler lists today's sales with quick totals for the register.
func TodaySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dayStart := startOfDay(time.Now())
		dayEnd := dayStart.AddDate(0, 0, 1)

		var sales []models.Sale
		if err := database.DB.Preload("Items").
			Where("sale_date >= ? AND sale_date < ?", dayStart, dayEnd).
			Order("sale_date DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list today's sales")
		}

		var completedTotal float64
		var completedCount int
		for _, s := range sales {
			if s.StatusCode == models.SaleStatusCompleted {
				completedTotal += s.TotalAmount
				completedCount++
			}
		}

		return c.JSON(fiber.Map{
			"date":            dayStart.Format("2006-01-02"),
			"sales":           sales,
			"total_count":     len(sales),
			"completed_count": completedCount,
			"completed_total": completedTotal,
		})
	}
}

// SalesSummaryHandler aggregates a date window by status plus revenue totals.
func SalesSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		type statusRow struct {
			Status string  `json:"status"`
			Count  int64   `json:"count"`
			Total  float64 `json:"total"`
		}
		var rows []statusRow
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ?", start, end).
			Select("status_code AS status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("status_code").
			Scan(&rows)

		type revenueRow struct {
			Revenue   float64 `json:"revenue"`
			AvgTicket float64 `json:"avg_ticket"`
			Count     int64   `json:"count"`
		}
		var revenue revenueRow
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ? AND status_code = ?", start, end, models.SaleStatusCompleted).
			Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(AVG(total_amount), 0) AS avg_ticket, COUNT(*) AS count").
			Scan(&revenue)

		return c.JSON(fiber.Map{
			"start_date":      start.Format("2006-01-02"),
			"end_date":        end.AddDate(0, 0, -1).Format("2006-01-02"),
			"by_status":       rows,
			"revenue":         revenue.Revenue,
			"avg_ticket":      revenue.AvgTicket,
			"completed_count": revenue.Count,
		})
	}
}

// TopProductsHandler ranks products by quantity sold in completed sales.
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", 10)
		if limit < 1 || limit > 100 {
			limit = 10
		}

		type productRow struct {
			ProductID    uint    `json:"product_id"`
			ProductName  string  `json:"product_name"`
			QuantitySold float64 `json:"quantity_sold"`
			Revenue      float64 `json:"revenue"`
		}

		var rows []productRow
		err = database.DB.Model(&models.SaleItem{}).
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Where("sales.sale_date >= ? AND sales.sale_date < ? AND sales.status_code = ?",
				start, end, models.SaleStatusCompleted).
			Select("sale_items.product_id, sale_items.product_name, " +
				"SUM(sale_items.quantity) AS quantity_sold, SUM(sale_items.total_price) AS revenue").
			Group("sale_items.product_id, sale_items.product_name").
			Order("quantity_sold DESC").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not rank products")
		}
		return c.JSON(rows)
	}
}

// PaymentMethodStatsHandler breaks completed revenue down by payment method.
func PaymentMethodStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		type methodRow struct {
			PaymentMethod string  `json:"payment_method"`
			Count         int64   `json:"count"`
			Total         float64 `json:"total"`
		}

		var rows []methodRow
		err = database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ? AND status_code = ?", start, end, models.SaleStatusCompleted).
			Select("payment_method_code AS payment_method, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("payment_method_code").
			Order("total DESC").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute payment stats")
		}

		var grand float64
		for _, r := range rows {
			grand += r.Total
		}

		type methodShare struct {
			PaymentMethod string  `json:"payment_method"`
			Count         int64   `json:"count"`
			Total         float64 `json:"total"`
			Share         float64 `json:"share_percent"`
		}
		shares := make([]methodShare, 0, len(rows))
		for _, r := range rows {
			share := 0.0
			if grand > 0 {
				share = r.Total / grand * 100
			}
			shares = append(shares, methodShare{r.PaymentMethod, r.Count, r.Total, share})
		}

		return c.JSON(fiber.Map{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.AddDate(0, 0, -1).Format("2006-01-02"),
			"methods":    shares,
			"total":      grand,
		})
	}
}
