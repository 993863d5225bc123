// Package inventory handles stock entries: receipts of goods that, once
// validated, credit the product catalog.
package inventory

import (
	"fmt"
	"time"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/reference"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EntryItemRequest struct {
	ProductID   uint     `json:"product_id"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	ExpiryDate  string   `json:"expiry_date"`
	BatchNumber string   `json:"batch_number"`
}

type EntryRequest struct {
	EntryTypeCode string             `json:"entry_type"`
	SupplierID    *uint              `json:"supplier_id"`
	EntryDate     string             `json:"entry_date"`
	Notes         string             `json:"notes"`
	TaxAmount     *float64           `json:"tax_amount"`
	Items         []EntryItemRequest `json:"items"`
}

// applyTaxAmount merges the header tax. An omitted tax_amount keeps
// whatever the entry already carries.
func applyTaxAmount(entry *models.Entry, req EntryRequest) error {
	if req.TaxAmount == nil {
		return nil
	}
	if *req.TaxAmount < 0 {
		return fmt.Errorf("tax_amount cannot be negative")
	}
	entry.TaxAmount = *req.TaxAmount
	return nil
}

func buildItem(req EntryItemRequest) (models.EntryItem, error) {
	if req.ProductID == 0 {
		return models.EntryItem{}, fmt.Errorf("product_id is required")
	}
	if req.Quantity <= 0 {
		return models.EntryItem{}, fmt.Errorf("quantity must be positive")
	}
	if req.UnitPrice != nil && *req.UnitPrice < 0 {
		return models.EntryItem{}, fmt.Errorf("unit_price cannot be negative")
	}

	var count int64
	database.DB.Model(&models.Product{}).Where("id = ?", req.ProductID).Count(&count)
	if count == 0 {
		return models.EntryItem{}, fmt.Errorf("unknown product %d", req.ProductID)
	}

	item := models.EntryItem{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		BatchNumber: req.BatchNumber,
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.ExpiryDate != "" {
		d, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			return models.EntryItem{}, fmt.Errorf("expiry_date must be YYYY-MM-DD")
		}
		item.ExpiryDate = &d
	}
	item.Recalculate()
	return item, nil
}

func ListEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").
			Order("entry_date DESC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if supplier := c.Query("supplier_id"); supplier != "" {
			q = q.Where("supplier_id = ?", supplier)
		}
		if entryType := c.Query("entry_type"); entryType != "" {
			q = q.Where("entry_type_code = ?", entryType)
		}

		var entries []models.Entry
		if err := q.Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list entries")
		}
		return c.JSON(entries)
	}
}

func GetEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").
			First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}
		return c.JSON(entry)
	}
}

func CreateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req EntryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.EntryTypeCode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "entry_type is required")
		}
		var count int64
		database.DB.Model(&models.EntryType{}).Where("code = ?", req.EntryTypeCode).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown entry type")
		}
		if req.SupplierID != nil {
			database.DB.Model(&models.Supplier{}).Where("id = ?", *req.SupplierID).Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown supplier")
			}
		}
		entryDate := time.Now()
		if req.EntryDate != "" {
			d, err := time.Parse("2006-01-02", req.EntryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entry_date must be YYYY-MM-DD")
			}
			entryDate = d
		}

		entry := models.Entry{
			Reference:     reference.New(reference.PrefixEntry),
			EntryTypeCode: req.EntryTypeCode,
			SupplierID:    req.SupplierID,
			EntryDate:     entryDate,
			Status:        models.EntryStatusPending,
			Notes:         req.Notes,
		}
		if err := applyTaxAmount(&entry, req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		for _, itemReq := range req.Items {
			item, err := buildItem(itemReq)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			entry.Items = append(entry.Items, item)
		}
		entry.RecalculateTotal()
		entry.StampCreated(auth.ActorID(c))

		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create entry")
		}

		writeEntryAudit(c, models.AuditActionCreate, entry.ID, "Created entry "+entry.Reference, nil, entry)
		database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").First(&entry, entry.ID)
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

func UpdateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.Preload("Items").First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}
		if entry.Status.Terminal() {
			return fiber.NewError(fiber.StatusConflict, "Completed or cancelled entries cannot be edited")
		}
		before := entry

		var req EntryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.EntryTypeCode != "" {
			var count int64
			database.DB.Model(&models.EntryType{}).Where("code = ?", req.EntryTypeCode).Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown entry type")
			}
			entry.EntryTypeCode = req.EntryTypeCode
		}
		if req.SupplierID != nil {
			entry.SupplierID = req.SupplierID
		}
		if req.EntryDate != "" {
			d, err := time.Parse("2006-01-02", req.EntryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entry_date must be YYYY-MM-DD")
			}
			entry.EntryDate = d
		}
		if req.Notes != "" {
			entry.Notes = req.Notes
		}
		if err := applyTaxAmount(&entry, req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		entry.StampUpdated(auth.ActorID(c))

		// Replacing items wholesale keeps header totals and lines consistent.
		if req.Items != nil {
			var items []models.EntryItem
			for _, itemReq := range req.Items {
				item, err := buildItem(itemReq)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, err.Error())
				}
				item.EntryID = entry.ID
				items = append(items, item)
			}

			tx := database.DB.Begin()
			if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryItem{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not replace entry items")
			}
			entry.Items = items
			entry.RecalculateTotal()
			if err := tx.Save(&entry).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry")
			}
			if err := tx.Commit().Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry")
			}
		} else {
			entry.RecalculateTotal()
			if err := database.DB.Save(&entry).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update entry")
			}
		}

		writeEntryAudit(c, models.AuditActionUpdate, entry.ID, "Updated entry "+entry.Reference, before, entry)
		database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").First(&entry, entry.ID)
		return c.JSON(entry)
	}
}

func DeleteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}
		if entry.Status == models.EntryStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "Completed entries cannot be deleted; stock was already credited")
		}

		tx := database.DB.Begin()
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete entry")
		}
		if err := tx.Delete(&entry).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete entry")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete entry")
		}

		writeEntryAudit(c, models.AuditActionDelete, entry.ID, "Deleted entry "+entry.Reference, entry, nil)
		return c.JSON(fiber.Map{"message": "Entry deleted"})
	}
}

// ValidateEntryHandler completes a pending entry and credits every item's
// quantity to its product in one transaction. Runs at most once per entry.
func ValidateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.Preload("Items").Preload("Items.Product").
			First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}
		if entry.Status.Terminal() {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Entry %s is already %s", entry.Reference, entry.Status))
		}
		if len(entry.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Entry has no items to credit")
		}

		before := entry
		tx := database.DB.Begin()

		// Guard against a concurrent validation of the same entry: only one
		// request can flip the status off PENDING/DRAFT.
		res := tx.Model(&models.Entry{}).
			Where("id = ? AND status NOT IN ?", entry.ID,
				[]models.EntryStatus{models.EntryStatusCompleted, models.EntryStatusCancelled}).
			Updates(map[string]any{
				"status":     models.EntryStatusCompleted,
				"updated_by": auth.ActorID(c),
			})
		if res.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not validate entry")
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Entry was already validated or cancelled")
		}

		for _, item := range entry.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("current_stock", gorm.Expr("current_stock + ?", item.Quantity)).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not credit stock")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not validate entry")
		}

		entry.Status = models.EntryStatusCompleted
		writeEntryAudit(c, models.AuditActionUpdate, entry.ID,
			fmt.Sprintf("Validated entry %s (%d items credited)", entry.Reference, len(entry.Items)),
			before, entry)

		database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").First(&entry, entry.ID)
		return c.JSON(entry)
	}
}

// CancelEntryHandler cancels a non-terminal entry. No stock moves.
func CancelEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entry models.Entry
		if err := database.DB.First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}
		if entry.Status.Terminal() {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Entry %s is already %s", entry.Reference, entry.Status))
		}

		before := entry
		entry.Status = models.EntryStatusCancelled
		entry.StampUpdated(auth.ActorID(c))
		if err := database.DB.Save(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not cancel entry")
		}

		writeEntryAudit(c, models.AuditActionUpdate, entry.ID, "Cancelled entry "+entry.Reference, before, entry)
		return c.JSON(entry)
	}
}

// EntriesByDateRangeHandler filters entries on entry_date.
func EntriesByDateRangeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		var entries []models.Entry
		if err := database.DB.Preload("Supplier").Preload("Items").
			Where("entry_date >= ? AND entry_date < ?", start, end).
			Order("entry_date DESC").
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list entries")
		}
		return c.JSON(entries)
	}
}

// EntriesSummaryHandler aggregates entries over a date window, grouped by status.
func EntriesSummaryHandler() fiber.Handler {
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
		database.DB.Model(&models.Entry{}).
			Where("entry_date >= ? AND entry_date < ?", start, end).
			Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("status").
			Scan(&rows)

		var totalCount int64
		var totalAmount float64
		for _, r := range rows {
			totalCount += r.Count
			totalAmount += r.Total
		}

		return c.JSON(fiber.Map{
			"start_date":   start.Format("2006-01-02"),
			"end_date":     end.AddDate(0, 0, -1).Format("2006-01-02"),
			"total_count":  totalCount,
			"total_amount": totalAmount,
			"by_status":    rows,
		})
	}
}

// parseDateRange reads start_date/end_date (YYYY-MM-DD, both inclusive) and
// returns [start, end+1d) for range queries. Defaults to the last 30 days.
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

func writeEntryAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, desc string, before, after any) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.FullName(),
		EntityType:  "entry",
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
