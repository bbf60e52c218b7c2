package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/utils"
)

const tzIDAttempts = 10

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a new participant account and starts a session.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "User with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashSecret(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	tzID, err := h.uniqueTzID()
	if err != nil {
		return err
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		TzID:         tzID,
		Role:         models.RoleUser,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	if err := issueSession(c, h.cfg, &user); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "tz_id": user.TzID}).Info("user registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    sessionUser(&user),
	})
}

// uniqueTzID draws participant ids until one is free, then falls back to a time-based id.
func (h *AuthHandler) uniqueTzID() (string, error) {
	for i := 0; i < tzIDAttempts; i++ {
		candidate := utils.GenerateTzID()
		var count int64
		if err := h.db.Model(&models.User{}).Where("tz_id = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return utils.FallbackTzID(), nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	if !utils.SecretMatches(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}

	if err := issueSession(c, h.cfg, &user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    sessionUser(&user),
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearSession(c, h.cfg)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Session reports the current user, or null when there is no valid session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claims, ok := middleware.SessionClaims(c, h.cfg.JWTSecret)
	if !ok {
		return c.JSON(fiber.Map{"user": nil})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Warn("session lookup failed")
		}
		return c.JSON(fiber.Map{"user": nil})
	}

	return c.JSON(fiber.Map{"user": sessionUser(&user)})
}
