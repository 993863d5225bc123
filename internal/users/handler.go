// Package users handles account and role administration. All routes are
// admin-gated; self-service (login, password change) lives in auth.
package users

import (
	"strings"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    *uint  `json:"role_id"`
	IsStaff   bool   `json:"is_staff"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	RoleID    *uint   `json:"role_id"`
	IsActive  *bool   `json:"is_active"`
	IsStaff   *bool   `json:"is_staff"`
	Password  *string `json:"password"`
}

type RoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Role").Order("username")
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}
		if role := c.Query("role_id"); role != "" {
			q = q.Where("role_id = ?", role)
		}

		var users []models.User
		if err := q.Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}
		return c.JSON(users)
	}
}

func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.Preload("Role").First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return c.JSON(user)
	}
}

func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Username == "" || req.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username and email are required")
		}
		if len(req.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("username = ? OR email = ?", req.Username, req.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Username or email already in use")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Username:     req.Username,
			Email:        req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			PasswordHash: string(hash),
			RoleID:       req.RoleID,
			IsActive:     true,
			IsStaff:      req.IsStaff,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		writeUserAudit(c, models.AuditActionCreate, user.ID, "Created user "+user.Username, nil, &user)
		database.DB.Preload("Role").First(&user, user.ID)
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		before := user

		var req UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*req.Email))
			var count int64
			database.DB.Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Email already in use")
			}
			user.Email = email
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.RoleID != nil {
			user.RoleID = req.RoleID
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.IsStaff != nil {
			user.IsStaff = *req.IsStaff
		}
		if req.Password != nil {
			if len(*req.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
			}
			user.PasswordHash = string(hash)
		}

		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user")
		}

		writeUserAudit(c, models.AuditActionUpdate, user.ID, "Updated user "+user.Username, &before, &user)
		database.DB.Preload("Role").First(&user, user.ID)
		return c.JSON(user)
	}
}

// DeleteUserHandler deactivates rather than removes: users are referenced
// from audit history and document created_by fields.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		actor, err := auth.CurrentUser(c)
		if err == nil && actor.ID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot deactivate your own account")
		}

		before := user
		user.IsActive = false
		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate user")
		}

		writeUserAudit(c, models.AuditActionDelete, user.ID, "Deactivated user "+user.Username, &before, &user)
		return c.JSON(fiber.Map{"message": "User deactivated"})
	}
}

func ListRolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []models.UserRole
		if err := database.DB.Order("name").Find(&roles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list roles")
		}
		return c.JSON(roles)
	}
}

func CreateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RoleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		role := models.UserRole{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			IsActive:    true,
		}
		role.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&role).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Role name already exists")
		}
		return c.Status(fiber.StatusCreated).JSON(role)
	}
}

func UpdateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var role models.UserRole
		if err := database.DB.First(&role, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Role not found")
		}

		var req RoleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Name) != "" {
			role.Name = strings.TrimSpace(req.Name)
		}
		if req.Description != "" {
			role.Description = req.Description
		}
		if req.IsActive != nil {
			role.IsActive = *req.IsActive
		}
		role.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&role).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Could not update role")
		}
		return c.JSON(role)
	}
}

func DeleteRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var role models.UserRole
		if err := database.DB.First(&role, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Role not found")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("role_id = ?", role.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Role is still assigned to users")
		}

		if err := database.DB.Delete(&role).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete role")
		}
		return c.JSON(fiber.Map{"message": "Role deleted"})
	}
}

func writeUserAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, desc string, before, after *models.User) {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	opts := audit.LogOptions{
		UserID:      actor.ID,
		UserName:    actor.FullName(),
		EntityType:  "user",
		EntityID:    entityID,
		Action:      action,
		Description: desc,
	}
	if before != nil {
		opts.Before = before
	}
	if after != nil {
		opts.After = after
	}
	_ = audit.WriteLog(opts)
}
