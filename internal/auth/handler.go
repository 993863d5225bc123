package auth

import (
	"fmt"
	"log"
	"strings"
	"time"

	"backoffice-backend/internal/config"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const (
	resetTokenTTL      = time.Hour
	activationTokenTTL = 48 * time.Hour
)

// CurrentUser loads the authenticated user set by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "User information unavailable")
	}
	var user models.User
	if err := database.DB.Preload("Role").First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "User not found")
	}
	return &user, nil
}

// POST /api/auth/register
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Username == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username, email and password are required")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("username = ? OR email = ?", body.Username, body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Username or email already in use")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		var staffRole models.UserRole
		var roleID *uint
		if err := database.DB.Where("name = ?", models.RoleStaff).First(&staffRole).Error; err == nil {
			roleID = &staffRole.ID
		}

		user := models.User{
			Username:     body.Username,
			Email:        body.Email,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			PasswordHash: string(hash),
			RoleID:       roleID,
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var user models.User
		if err := database.DB.Preload("Role").
			Where("username = ?", strings.TrimSpace(body.Username)).
			First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}

		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "This account is disabled")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		now := time.Now()
		database.DB.Model(&user).Update("last_login", now)

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":         user.ID,
				"username":   user.Username,
				"email":      user.Email,
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"role":       user.RoleName(),
			},
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenID, ok := c.Locals(CtxTokenIDKey).(string)
		if !ok || tokenID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token information unavailable")
		}

		// Denylist for the full token lifetime; the entry outliving the
		// token by a little is harmless.
		if err := store.Put(c.Context(), tokens.PurposeDenylist, tokenID, 0, tokenLifetime); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not revoke token")
		}

		return c.JSON(fiber.Map{"message": "Logged out successfully"})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.RoleName(),
			"is_active":  user.IsActive,
			"is_staff":   user.IsStaff,
			"last_login": user.LastLogin,
		})
	}
}

// POST /api/auth/password/reset
// Mints a one-time token; delivery is out of band (the link is logged).
// The response never reveals whether the email exists.
func PasswordResetRequestHandler(cfg *config.Config, store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email is required")
		}

		message := fiber.Map{
			"message": "If an account with this email exists, a reset link has been sent",
		}

		var user models.User
		if err := database.DB.Where("email = ?", strings.ToLower(body.Email)).First(&user).Error; err != nil {
			return c.JSON(message)
		}

		token := uuid.NewString()
		if err := store.Put(c.Context(), tokens.PurposeReset, token, user.ID, resetTokenTTL); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create reset token")
		}

		log.Printf("password reset link for user %d: %s/reset-password/%s", user.ID, cfg.FrontendURL, token)

		return c.JSON(message)
	}
}

// POST /api/auth/password/reset/confirm
func PasswordResetConfirmHandler(store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Token == "" || body.NewPassword == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token and new_password are required")
		}
		if len(body.NewPassword) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		userID, ok, err := store.Consume(c.Context(), tokens.PurposeReset, body.Token)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not verify reset token")
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid or expired reset token")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		if err := database.DB.Model(&models.User{}).
			Where("id = ?", userID).
			Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update password")
		}

		return c.JSON(fiber.Map{"message": "Password updated successfully"})
	}
}

// POST /api/auth/password/change
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.OldPassword == "" || body.NewPassword == "" {
			return fiber.NewError(fiber.StatusBadRequest, "old_password and new_password are required")
		}
		if len(body.NewPassword) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.OldPassword)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Old password is incorrect")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		if err := database.DB.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update password")
		}

		return c.JSON(fiber.Map{"message": "Password updated successfully"})
	}
}

// POST /api/auth/activate
func ActivateHandler(store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token is required")
		}

		userID, ok, err := store.Consume(c.Context(), tokens.PurposeActivation, body.Token)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not verify activation token")
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid or expired activation link")
		}

		if err := database.DB.Model(&models.User{}).
			Where("id = ?", userID).
			Update("is_active", true).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not activate account")
		}

		return c.JSON(fiber.Map{"message": "Account activated successfully"})
	}
}

// POST /api/auth/activate/resend
func ResendActivationHandler(cfg *config.Config, store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email is required")
		}

		var user models.User
		if err := database.DB.
			Where("email = ? AND is_active = false", strings.ToLower(body.Email)).
			First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No inactive account found for this email")
		}

		token := uuid.NewString()
		if err := store.Put(c.Context(), tokens.PurposeActivation, token, user.ID, activationTokenTTL); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create activation token")
		}

		log.Printf("activation link for user %d: %s", user.ID, fmt.Sprintf("%s/activate/%s", cfg.FrontendURL, token))

		return c.JSON(fiber.Map{"message": "Activation email resent successfully"})
	}
}
