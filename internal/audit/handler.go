package audit

import (
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=sale&entity_id=3&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.AuditLog{}).Order("created_at DESC")

		if et := c.Query("entity_type"); et != "" {
			q = q.Where("entity_type = ?", et)
		}
		if eid := c.QueryInt("entity_id"); eid > 0 {
			q = q.Where("entity_id = ?", eid)
		}

		limit := c.QueryInt("limit", 100)
		if limit < 1 || limit > 1000 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := q.Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(logs)
	}
}
