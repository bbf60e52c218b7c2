package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/services"
	"github.com/technotronz/symposium/internal/utils"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
	resetSentMsg    = "If an account exists, a password reset link has been sent"
	resetInvalidMsg = "Invalid or expired reset token"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.Mailer
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, cfg *config.Config, mailer services.Mailer) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, mailer: mailer}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword mails a one-hour reset link. The answer is the same whether
// or not the account exists.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true, "message": resetSentMsg})
		}
		return err
	}

	token, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	tokenHash, err := utils.HashSecret(token)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: tokenHash,
			ExpiresAt: time.Now().Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", h.cfg.BaseURL, token, url.QueryEscape(email))
	body := fmt.Sprintf(`<h2>Password Reset Request</h2>
<p>You requested to reset your password. Click the link below to reset it:</p>
<a href="%s">%s</a>
<p>This link will expire in 1 hour.</p>
<p>If you didn't request this, please ignore this email.</p>`, link, link)

	if err := h.mailer.Send(c.UserContext(), email, "Password Reset Request - Technotronz 2026", body); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset email")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process request. Please try again.")
	}

	return c.JSON(fiber.Map{"success": true, "message": resetSentMsg})
}

// CheckResetLink reports whether a reset link still works without consuming it.
func (h *PasswordResetHandler) CheckResetLink(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	token := c.Query("token")
	if email == "" || token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and token are required")
	}

	_, ok, err := h.matchToken(email, token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": ok})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ResetPassword sets a new password and revokes every outstanding link of the user.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, ok, err := h.matchToken(strings.ToLower(strings.TrimSpace(req.Email)), req.Token)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, resetInvalidMsg)
	}

	hash, err := utils.HashSecret(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to reset password. Please try again.")
	}

	logrus.WithField("user_id", user.ID).Info("password reset")
	return c.JSON(fiber.Map{"success": true, "message": "Password reset successfully"})
}

// matchToken finds the user's unexpired token whose hash matches.
func (h *PasswordResetHandler) matchToken(email, token string) (*models.User, bool, error) {
	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var records []models.PasswordResetToken
	if err := h.db.Where("user_id = ? AND expires_at > ?", user.ID, time.Now()).Find(&records).Error; err != nil {
		return nil, false, err
	}
	for _, r := range records {
		if utils.SecretMatches(r.TokenHash, token) {
			return &user, true, nil
		}
	}
	return &user, false, nil
}
