package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/services"
)

// RegistrationHandler signs participants up for events and workshops.
type RegistrationHandler struct {
	registrations *services.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type registerEventRequest struct {
	EventID string `json:"eventId" validate:"required"`
}

type registerWorkshopRequest struct {
	WorkshopID string `json:"workshopId" validate:"required"`
}

// RegisterEvent adds an event to the user's registrations.
func (h *RegistrationHandler) RegisterEvent(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req registerEventRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	events, err := h.registrations.RegisterEvent(c.UserContext(), userID, req.EventID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"message":          "Successfully registered for event",
		"eventsRegistered": events,
	})
}

// RegisterWorkshop adds a workshop to the user's registrations.
func (h *RegistrationHandler) RegisterWorkshop(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req registerWorkshopRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.registrations.RegisterWorkshop(c.UserContext(), userID, req.WorkshopID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"success":             true,
		"message":             "Successfully registered for workshop",
		"workshopsRegistered": res.WorkshopsRegistered,
		"workshopPayments":    res.WorkshopPayments,
	})
}
