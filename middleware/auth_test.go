package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/staff", JWTMiddleware(secret), RequireStaff(), func(c *fiber.Ctx) error {
		claims, err := GetCurrentClaims(c)
		if err != nil {
			return err
		}
		return c.SendString(claims.Subject)
	})
	app.Delete("/admin", JWTMiddleware(secret), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newProtectedApp("s3cret")

	req := httptest.NewRequest("GET", "/staff", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	forged, err := GenerateToken("clerk", RoleStaff, "other", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := GenerateToken("clerk", RoleStaff, "s3cret", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequireRole(t *testing.T) {
	app := newProtectedApp("s3cret")

	staff, err := GenerateToken("clerk", RoleStaff, "s3cret", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	admin, err := GenerateToken("owner", RoleAdmin, "s3cret", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("clerk", RoleStaff, "s3cret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "s3cret")
	assert.Error(t, err)
}

func TestRequestIDIsPropagated(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}
