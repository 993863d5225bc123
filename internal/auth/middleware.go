package auth

import (
	"fmt"
	"strings"

	"backoffice-backend/internal/config"
	"backoffice-backend/internal/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
	CtxUserRoleKey = "user_role"
	CtxTokenIDKey  = "token_id"
)

func JWTMiddleware(cfg *config.Config, store tokens.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not parse token claims")
		}

		// Tokens surrendered through logout stay denylisted until expiry.
		if revoked, err := store.Peek(c.Context(), tokens.PurposeDenylist, claims.ID); err == nil && revoked {
			return fiber.NewError(fiber.StatusUnauthorized, "Token has been revoked")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxTokenIDKey, claims.ID)

		return c.Next()
	}
}

// ActorID returns the authenticated user's ID from the request context
// without a database round trip. Nil on unauthenticated requests.
func ActorID(c *fiber.Ctx) *uint {
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok {
		return &id
	}
	return nil
}

func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(string)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role information unavailable")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to perform this action")
	}
}
