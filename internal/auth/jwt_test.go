package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice-backend/internal/config"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-test-secret-test-secret!"

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "marie",
		Role:     &models.UserRole{Name: models.RoleAdmin},
	}
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	signed, err := GenerateToken(testSecret, testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse: %v, valid=%v", err, token.Valid)
	}

	claims := token.Claims.(*JWTCustomClaims)
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "marie" {
		t.Errorf("Username = %q, want marie", claims.Username)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleAdmin)
	}
	if claims.ID == "" {
		t.Error("jti should be set so logout can denylist the token")
	}
}

func newTestApp(store tokens.Store) *fiber.App {
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New()
	app.Get("/protected", JWTMiddleware(cfg, store), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": c.Locals(CtxUserRoleKey)})
	})
	app.Get("/admin-only", JWTMiddleware(cfg, store), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsBadSignature(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	signed, err := GenerateToken("another-secret-another-secret-yes!!!", testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	signed, err := GenerateToken(testSecret, testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsDenylistedToken(t *testing.T) {
	store := tokens.NewMemoryStore()
	app := newTestApp(store)

	signed, _ := GenerateToken(testSecret, testUser())
	parsed, _ := jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	jti := parsed.Claims.(*JWTCustomClaims).ID
	store.Put(context.Background(), tokens.PurposeDenylist, jti, 42, time.Hour)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for revoked token", resp.StatusCode)
	}
}

func TestActorIDReturnsAuthenticatedUserID(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New()
	app.Get("/whoami", JWTMiddleware(cfg, tokens.NewMemoryStore()), func(c *fiber.Ctx) error {
		id := ActorID(c)
		if id == nil || *id != 42 {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	signed, _ := GenerateToken(testSecret, testUser())
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200 with actor id 42", resp.StatusCode)
	}
}

func TestActorIDNilWithoutAuthContext(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		if ActorID(c) != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/anon", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200 for nil actor", resp.StatusCode)
	}
}

func TestRequireRoleForbidsStaff(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	staff := &models.User{ID: 7, Username: "paul"}
	signed, _ := GenerateToken(testSecret, staff)

	req := httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	app := newTestApp(tokens.NewMemoryStore())

	signed, _ := GenerateToken(testSecret, testUser())
	req := httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
