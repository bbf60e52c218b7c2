package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/testutil"
	"github.com/technotronz/symposium/internal/utils"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	userID := uuid.New()

	app := fiber.New()
	app.Get("/whoami", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id.String())
	})

	token, err := utils.GenerateToken(cfg.JWTSecret, utils.Claims{UserID: userID}, time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("other", utils.Claims{UserID: userID}, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{name: "no token", setup: func(*http.Request) {}, status: fiber.StatusUnauthorized},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AuthCookie, Value: token}) }, status: fiber.StatusOK},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: fiber.StatusOK},
		{name: "wrong secret", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) }, status: fiber.StatusUnauthorized},
		{name: "basic scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, status: fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tc.setup(req)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{JWTSecret: "secret"}
	user := testutil.CreateUser(t, db, "robin@hawkins.edu")
	admin := testutil.CreateUser(t, db, "owens@hawkins.edu", func(u *models.User) { u.Role = models.RoleAdmin })

	app := fiber.New()
	app.Get("/admin", AuthMiddleware(cfg), RequireAdmin(db), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	call := func(id uuid.UUID) int {
		token, err := utils.GenerateToken(cfg.JWTSecret, utils.Claims{UserID: id}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusForbidden, call(user.ID))
	assert.Equal(t, fiber.StatusNoContent, call(admin.ID))
	assert.Equal(t, fiber.StatusUnauthorized, call(uuid.New()))
}

func TestHeadGuard(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Get("/verify", HeadGuard(), func(c *fiber.Ctx) error {
		calls++
		return c.SendString("handled")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodHead, "/verify", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, calls)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/verify", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)
}
