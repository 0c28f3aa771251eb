package handlers

import (
	applog "petshop/internal/log"
	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

// wantsJSON reports whether the caller is the storefront script rather than
// a plain form post.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Get("X-Requested-With") == "XMLHttpRequest" || c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return render(c, "cart", fiber.Map{"Cart": cv, "Err": c.Query("err")})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	petID, ok := validate.ID(c.FormValue("petId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "petId"})
		if wantsJSON(c) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing petId"})
		}
		return c.Status(fiber.StatusBadRequest).SendString("missing petId")
	}
	qty := validate.Qty(c.FormValue("quantity"))
	u := currentUser(c)

	err := h.Cart.Add(c.UserContext(), u.ID, petID, qty)
	if err == nil {
		applog.Info(c, "cart.add", map[string]any{"pet_id": petID, "qty": qty})
	}
	if wantsJSON(c) {
		n, _ := h.Cart.Count(c.UserContext(), u.ID)
		return jsonResult(c, "cart.add", err, "Added to cart.", fiber.Map{"cartCount": n})
	}
	if err != nil {
		return fail(c, "cart.add", err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return jsonResult(c, "cart.update", errBadItem, "", nil)
	}
	qty := validate.Qty(c.FormValue("quantity"))
	u := currentUser(c)
	err := h.Cart.UpdateQuantity(c.UserContext(), u.ID, itemID, qty)
	if !wantsJSON(c) {
		if err != nil {
			return fail(c, "cart.update", err)
		}
		return c.Redirect("/cart")
	}
	if err != nil {
		return jsonResult(c, "cart.update", err, "", nil)
	}
	cv, err := h.Cart.View(c.UserContext(), u.ID)
	return jsonResult(c, "cart.update", err, "Cart updated.", fiber.Map{
		"subTotal": cv.SubTotal.StringFixed(2), "tax": cv.Tax.StringFixed(2),
		"total": cv.Total.StringFixed(2), "cartCount": cv.Units,
	})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return jsonResult(c, "cart.remove", errBadItem, "", nil)
	}
	err := h.Cart.Remove(c.UserContext(), currentUser(c).ID, itemID)
	if wantsJSON(c) {
		return jsonResult(c, "cart.remove", err, "Item removed.", nil)
	}
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	err := h.Cart.Clear(c.UserContext(), currentUser(c).ID)
	if wantsJSON(c) {
		return jsonResult(c, "cart.clear", err, "Cart cleared.", nil)
	}
	if err != nil {
		return fail(c, "cart.clear", err)
	}
	return c.Redirect("/cart")
}

// Count returns {count} for the header badge. Anonymous callers get zero.
func (h *CartHandler) Count(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(fiber.Map{"count": 0})
	}
	n, err := h.Cart.Count(c.UserContext(), u.ID)
	if err != nil {
		applog.Error(c, "cart.count", err, nil)
		return c.JSON(fiber.Map{"count": 0})
	}
	return c.JSON(fiber.Map{"count": n})
}
