package handlers

import (
	"strconv"

	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	ctx := c.UserContext()
	featured, err := h.Catalog.Featured(ctx, featuredCount)
	if err != nil {
		return fail(c, "home", err)
	}
	latest, err := h.Catalog.Latest(ctx, featuredCount)
	if err != nil {
		return fail(c, "home", err)
	}
	cats, err := h.Catalog.Categories(ctx)
	if err != nil {
		return fail(c, "home", err)
	}
	return render(c, "home", fiber.Map{"Featured": featured, "Latest": latest, "Categories": cats})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err)
	}
	return render(c, "categories", fiber.Map{"Categories": cats})
}

// Show is the old /categories/:id address; the listing lives under /pets.
func (h *CategoryHandler) Show(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Category not found")
	}
	return c.Redirect("/pets/category/"+strconv.FormatInt(id, 10), fiber.StatusMovedPermanently)
}
