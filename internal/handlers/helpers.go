package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/services"
	"github.com/technotronz/symposium/internal/utils"
)

var validate = validator.New()

// parseBody decodes and validates a request body, answering 400 on either failure.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "len", "numeric":
		return field + " is invalid"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// issueSession signs a token for the user and sets it as the auth cookie.
func issueSession(c *fiber.Ctx, cfg *config.Config, user *models.User) error {
	token, err := utils.GenerateToken(cfg.JWTSecret, utils.Claims{
		UserID:                user.ID,
		Email:                 user.Email,
		RegistrationCompleted: user.RegistrationCompleted,
	}, cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TokenExpires / time.Second),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func clearSession(c *fiber.Ctx, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func sessionUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                    user.ID,
		"email":                 user.Email,
		"name":                  user.Name,
		"tzId":                  user.TzID,
		"registrationCompleted": user.RegistrationCompleted,
		"role":                  user.Role,
	}
}

// serviceError maps domain errors to HTTP errors. Unknown errors pass through
// to the central error handler as 500s.
func serviceError(err error) error {
	var adapterErr *services.AdapterError
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrProfileIncomplete):
		return fiber.NewError(fiber.StatusBadRequest, "Please complete your registration first")
	case errors.Is(err, services.ErrEventFeeUnpaid):
		return fiber.NewError(fiber.StatusBadRequest, "Please complete the event fee payment first")
	case errors.Is(err, services.ErrAlreadyRegistered):
		return fiber.NewError(fiber.StatusBadRequest, "Already registered")
	case errors.Is(err, services.ErrUnknownEvent):
		return fiber.NewError(fiber.StatusNotFound, "Event not found")
	case errors.Is(err, services.ErrUnknownWorkshop):
		return fiber.NewError(fiber.StatusNotFound, "Workshop not found")
	case errors.Is(err, services.ErrAlreadyPaid):
		return fiber.NewError(fiber.StatusConflict, "Already paid")
	case errors.Is(err, services.ErrDuplicateTransaction):
		return fiber.NewError(fiber.StatusConflict, "Duplicate transaction, please try again")
	case errors.Is(err, services.ErrInvalidPayment):
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payment request")
	case errors.As(err, &adapterErr):
		return fiber.NewError(fiber.StatusBadGateway, "Payment gateway unavailable")
	default:
		return err
	}
}
