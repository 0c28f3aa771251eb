package handlers

import (
	"strings"

	"petshop/internal/apperr"
	"petshop/internal/log"
	"petshop/internal/repos"
	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const featuredCount = 8

type ProductHandler struct {
	Catalog *services.CatalogService
}

func priceParam(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// List is /pets with category, keyword, price range and sort filters.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f := repos.PetFilter{
		MinPrice: priceParam(c.Query("minPrice")),
		MaxPrice: priceParam(c.Query("maxPrice")),
		Sort:     repos.PetSort(c.Query("sort")),
		Page:     validate.Page(c.Query("page")),
	}
	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "categoryId"})
			return notFound(c, "Category not found")
		}
		f.CategoryID = id
	}
	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "search", "value": raw})
			return render(c.Status(fiber.StatusBadRequest), "pets", fiber.Map{
				"Page": services.PetPage{Page: 1, TotalPages: 1}, "Err": "Enter a valid keyword (letters/numbers only)",
			})
		}
		f.Search = q
	}

	pp, err := h.Catalog.List(c.UserContext(), f)
	if err != nil {
		return fail(c, "pets.list", err)
	}
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return fail(c, "pets.list", err)
	}
	return render(c, "pets", fiber.Map{"Page": pp, "Categories": cats})
}

func (h *ProductHandler) Featured(c *fiber.Ctx) error {
	pets, err := h.Catalog.Featured(c.UserContext(), featuredCount*2)
	if err != nil {
		return fail(c, "pets.featured", err)
	}
	return render(c, "featured", fiber.Map{"Pets": pets})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "pet"})
		return notFound(c, "This pet is no longer available")
	}
	d, err := h.Catalog.Details(c.UserContext(), id)
	if apperr.Is(err, apperr.CodeNotFound) {
		return notFound(c, "This pet is no longer available")
	}
	if err != nil {
		return fail(c, "pets.detail", err)
	}
	return render(c, "pet", fiber.Map{"P": d.Pet, "Related": d.Related})
}

// Category is /pets/category/:id.
func (h *ProductHandler) Category(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Category not found")
	}
	cp, err := h.Catalog.Category(c.UserContext(), id, validate.Page(c.Query("page")), repos.PetSort(c.Query("sort")))
	if apperr.Is(err, apperr.CodeNotFound) {
		return notFound(c, "Category not found")
	}
	if err != nil {
		return fail(c, "pets.category", err)
	}
	return render(c, "category", fiber.Map{"Category": cp.Category, "Page": cp.PetPage})
}
