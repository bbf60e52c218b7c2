package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/utils"
)

// AuthCookie carries the session token.
const AuthCookie = "auth_token"

const claimsContextKey = "currentClaims"

// AuthMiddleware validates the session token from the auth cookie or a
// Bearer header and stores its claims in the request context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := SessionClaims(c, cfg.JWTSecret)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

// SessionClaims reads and verifies the session token without rejecting the request.
func SessionClaims(c *fiber.Ctx, secret string) (*utils.Claims, bool) {
	token := c.Cookies(AuthCookie)
	if token == "" {
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
		}
	}
	if token == "" {
		return nil, false
	}

	claims, err := utils.ParseToken(secret, token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireAdmin rejects users whose stored role is not admin. It must run after AuthMiddleware.
func RequireAdmin(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).Select("role").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
			}
			return err
		}
		if user.Role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden")
		}
		return c.Next()
	}
}

// GetCurrentClaims returns the claims stored by AuthMiddleware.
func GetCurrentClaims(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals(claimsContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := GetCurrentClaims(c)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
