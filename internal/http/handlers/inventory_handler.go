package handlers

import (
	"strings"

	"petshop/internal/apperr"
	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Catalog *services.CatalogService
}

// Check is GET /api/v1/availability?petId=.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("petId"))
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing petId",
		})
	}
	id, ok := validate.ID(raw)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid petId",
		})
	}

	avail, err := h.Catalog.Availability(c.UserContext(), id)
	if err != nil {
		ae := apperr.As(err)
		if ae == nil || ae.Code() != apperr.CodeNotFound {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not check availability",
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ae.Public()})
	}
	return c.JSON(avail)
}
