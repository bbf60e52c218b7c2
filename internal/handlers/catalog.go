package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/technotronz/symposium/internal/services"
)

// CatalogHandler serves the static event and workshop catalog.
type CatalogHandler struct{}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// ListEvents returns every event.
func (h *CatalogHandler) ListEvents(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": services.ListEvents()})
}

// GetEvent returns a single event by id.
func (h *CatalogHandler) GetEvent(c *fiber.Ctx) error {
	event, ok := services.FindEvent(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Event not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": event})
}

// ListWorkshops returns every workshop.
func (h *CatalogHandler) ListWorkshops(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": services.ListWorkshops()})
}

// GetWorkshop returns a single workshop by id.
func (h *CatalogHandler) GetWorkshop(c *fiber.Ctx) error {
	workshop, ok := services.FindWorkshop(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Workshop not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": workshop})
}
