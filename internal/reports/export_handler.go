package reports

import (
	"fmt"
	"time"

	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type SalesReportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Format    string `json:"format"` // "json" (default) or "xlsx"
}

// SalesReportHandler builds a per-day sales report over a window, as JSON
// or as a downloadable workbook.
func SalesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SalesReportRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		now := time.Now()
		start := now.AddDate(0, 0, -30)
		end := now
		if req.StartDate != "" {
			d, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			start = d
		}
		if req.EndDate != "" {
			d, err := time.Parse("2006-01-02", req.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
			end = d
		}
		if end.Before(start) {
			return fiber.NewError(fiber.StatusBadRequest, "end_date cannot be before start_date")
		}
		start = startOfDay(start)
		endExcl := startOfDay(end).AddDate(0, 0, 1)

		type dayRow struct {
			Day      string  `json:"day"`
			Count    int64   `json:"count"`
			Revenue  float64 `json:"revenue"`
			Discount float64 `json:"discount"`
			Tax      float64 `json:"tax"`
		}
		var days []dayRow
		database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ? AND status_code = ?", start, endExcl, models.SaleStatusCompleted).
			Select("TO_CHAR(sale_date, 'YYYY-MM-DD') AS day, COUNT(*) AS count, " +
				"COALESCE(SUM(total_amount), 0) AS revenue, " +
				"COALESCE(SUM(discount_amount), 0) AS discount, " +
				"COALESCE(SUM(tax_amount), 0) AS tax").
			Group("day").
			Order("day").
			Scan(&days)

		var totalRevenue float64
		var totalCount int64
		for _, d := range days {
			totalRevenue += d.Revenue
			totalCount += d.Count
		}

		if req.Format != "xlsx" {
			return c.JSON(fiber.Map{
				"start_date":    start.Format("2006-01-02"),
				"end_date":      end.Format("2006-01-02"),
				"total_revenue": totalRevenue,
				"total_count":   totalCount,
				"days":          days,
			})
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := []string{"Day", "Sales", "Revenue", "Discount", "Tax"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for rowIdx, d := range days {
			values := []any{d.Day, d.Count, d.Revenue, d.Discount, d.Tax}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
		totalCell, _ := excelize.CoordinatesToCellName(1, len(days)+3)
		f.SetCellValue(sheet, totalCell, fmt.Sprintf("Total: %d sales, %.2f revenue", totalCount, totalRevenue))

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build workbook")
		}

		filename := fmt.Sprintf("sales-report-%s-%s.xlsx",
			start.Format("20060102"), end.Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}

// ExportProductsHandler dumps the catalog to a workbook for offline
// stocktaking.
func ExportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Preload("Category").Preload("Unit").
			Order("name").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export products")
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := []string{"ID", "Name", "Category", "Unit", "Purchase Price", "Selling Price", "Stock", "Alert Threshold", "Barcode", "Active"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for rowIdx, p := range products {
			values := []any{p.ID, p.Name, p.Category.Name, p.Unit.Name,
				p.PurchasePrice, p.SellingPrice, p.CurrentStock, p.AlertThreshold, p.Barcode, p.IsActive}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build workbook")
		}

		filename := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}

// BackupHandler returns a JSON snapshot of the reference and transactional
// tables. Meant for small datasets; large installs back up at the database.
func BackupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		var suppliers []models.Supplier
		var customers []models.Customer
		var entries []models.Entry
		var sales []models.Sale
		var expenses []models.Expense
		var recurring []models.RecurringExpense

		database.DB.Find(&products)
		database.DB.Find(&suppliers)
		database.DB.Find(&customers)
		database.DB.Preload("Items").Find(&entries)
		database.DB.Preload("Items").Find(&sales)
		database.DB.Find(&expenses)
		database.DB.Find(&recurring)

		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="backup-%s.json"`, time.Now().Format("20060102-150405")))
		return c.JSON(fiber.Map{
			"generated_at":       time.Now(),
			"products":           products,
			"suppliers":          suppliers,
			"customers":          customers,
			"entries":            entries,
			"sales":              sales,
			"expenses":           expenses,
			"recurring_expenses": recurring,
		})
	}
}
