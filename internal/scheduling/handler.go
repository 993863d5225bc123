// Package scheduling handles work time slots and their assignment to users.
package scheduling

import (
	"regexp"
	"strings"

	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

var clockFormat = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type TimeSlotRequest struct {
	Name        string `json:"name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
	IsActive    *bool  `json:"is_active"`
}

type AssignmentRequest struct {
	UserID      uint   `json:"user_id"`
	TimeSlotID  uint   `json:"time_slot_id"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func ListTimeSlotsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order(`"order", start_time`)
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		var slots []models.TimeSlot
		if err := q.Find(&slots).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list time slots")
		}
		return c.JSON(slots)
	}
}

func GetTimeSlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var slot models.TimeSlot
		if err := database.DB.First(&slot, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Time slot not found")
		}
		return c.JSON(slot)
	}
}

func CreateTimeSlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req TimeSlotRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if !clockFormat.MatchString(req.StartTime) || !clockFormat.MatchString(req.EndTime) {
			return fiber.NewError(fiber.StatusBadRequest, "start_time and end_time must be HH:MM")
		}

		slot := models.TimeSlot{
			Name:        strings.TrimSpace(req.Name),
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Description: req.Description,
			IsActive:    true,
		}
		if req.Order != nil {
			slot.Order = *req.Order
		}
		slot.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&slot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create time slot")
		}
		return c.Status(fiber.StatusCreated).JSON(slot)
	}
}

func UpdateTimeSlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var slot models.TimeSlot
		if err := database.DB.First(&slot, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Time slot not found")
		}

		var req TimeSlotRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.Name) != "" {
			slot.Name = strings.TrimSpace(req.Name)
		}
		if req.StartTime != "" {
			if !clockFormat.MatchString(req.StartTime) {
				return fiber.NewError(fiber.StatusBadRequest, "start_time must be HH:MM")
			}
			slot.StartTime = req.StartTime
		}
		if req.EndTime != "" {
			if !clockFormat.MatchString(req.EndTime) {
				return fiber.NewError(fiber.StatusBadRequest, "end_time must be HH:MM")
			}
			slot.EndTime = req.EndTime
		}
		if req.Description != "" {
			slot.Description = req.Description
		}
		if req.Order != nil {
			slot.Order = *req.Order
		}
		if req.IsActive != nil {
			slot.IsActive = *req.IsActive
		}
		slot.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&slot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update time slot")
		}
		return c.JSON(slot)
	}
}

func DeleteTimeSlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var slot models.TimeSlot
		if err := database.DB.First(&slot, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Time slot not found")
		}

		var count int64
		database.DB.Model(&models.UserTimeSlot{}).Where("time_slot_id = ?", slot.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Time slot still has user assignments")
		}

		if err := database.DB.Delete(&slot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete time slot")
		}
		return c.JSON(fiber.Map{"message": "Time slot deleted"})
	}
}

func ListAssignmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("User").Preload("TimeSlot")
		if user := c.Query("user_id"); user != "" {
			q = q.Where("user_id = ?", user)
		}
		if slot := c.Query("time_slot_id"); slot != "" {
			q = q.Where("time_slot_id = ?", slot)
		}
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		var assignments []models.UserTimeSlot
		if err := q.Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list assignments")
		}
		return c.JSON(assignments)
	}
}

func CreateAssignmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AssignmentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserID == 0 || req.TimeSlotID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "user_id and time_slot_id are required")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("id = ?", req.UserID).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown user")
		}
		database.DB.Model(&models.TimeSlot{}).Where("id = ?", req.TimeSlotID).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown time slot")
		}

		database.DB.Model(&models.UserTimeSlot{}).
			Where("user_id = ? AND time_slot_id = ? AND is_active = true", req.UserID, req.TimeSlotID).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "User is already assigned to this time slot")
		}

		assignment := models.UserTimeSlot{
			UserID:      req.UserID,
			TimeSlotID:  req.TimeSlotID,
			Description: req.Description,
			IsActive:    true,
		}
		assignment.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&assignment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create assignment")
		}

		database.DB.Preload("User").Preload("TimeSlot").First(&assignment, assignment.ID)
		return c.Status(fiber.StatusCreated).JSON(assignment)
	}
}

func UpdateAssignmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var assignment models.UserTimeSlot
		if err := database.DB.First(&assignment, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
		}

		var req AssignmentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.TimeSlotID != 0 {
			assignment.TimeSlotID = req.TimeSlotID
		}
		if req.Description != "" {
			assignment.Description = req.Description
		}
		if req.IsActive != nil {
			assignment.IsActive = *req.IsActive
		}
		assignment.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&assignment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update assignment")
		}
		database.DB.Preload("User").Preload("TimeSlot").First(&assignment, assignment.ID)
		return c.JSON(assignment)
	}
}

func DeleteAssignmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var assignment models.UserTimeSlot
		if err := database.DB.First(&assignment, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
		}
		if err := database.DB.Delete(&assignment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete assignment")
		}
		return c.JSON(fiber.Map{"message": "Assignment deleted"})
	}
}

// UserScheduleHandler returns one user's active slots ordered by slot order.
func UserScheduleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var assignments []models.UserTimeSlot
		if err := database.DB.Preload("TimeSlot").
			Joins("JOIN time_slots ON time_slots.id = user_time_slots.time_slot_id").
			Where("user_time_slots.user_id = ? AND user_time_slots.is_active = true", user.ID).
			Order(`time_slots."order", time_slots.start_time`).
			Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load schedule")
		}
		return c.JSON(assignments)
	}
}

// SlotRosterHandler returns the active users assigned to one slot.
func SlotRosterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var slot models.TimeSlot
		if err := database.DB.First(&slot, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Time slot not found")
		}

		var assignments []models.UserTimeSlot
		if err := database.DB.Preload("User").
			Where("time_slot_id = ? AND is_active = true", slot.ID).
			Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load roster")
		}
		return c.JSON(fiber.Map{"time_slot": slot, "assignments": assignments})
	}
}
