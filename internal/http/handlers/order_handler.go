package handlers

import (
	"strconv"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	applog "petshop/internal/log"
	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "checkout.load", err)
	}
	if cv.Empty() {
		return c.Redirect("/cart")
	}
	// Shipping details default to the account profile.
	form := services.CheckoutForm{
		ShippingName:    u.FullName,
		ShippingPhone:   u.Phone,
		ShippingAddress: u.Address,
		PaymentMethod:   string(domain.PaymentCOD),
	}
	return render(c, "checkout", fiber.Map{"Cart": cv, "Form": form, "PaymentMethods": domain.PaymentMethods})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var form services.CheckoutForm
	if err := c.BodyParser(&form); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "checkout"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid checkout form")
	}
	u := currentUser(c)

	o, err := h.Order.PlaceOrder(c.UserContext(), u.ID, form)
	if err != nil {
		code := apperr.CodeOf(err)
		applog.Security(c, "order.place.fail", map[string]any{"code": code})
		switch code {
		case apperr.CodeEmptyCart:
			return c.Redirect("/cart")
		case apperr.CodeValidation, apperr.CodeInsufficientStock, apperr.CodeInvalidState:
			cv, verr := h.Cart.View(c.UserContext(), u.ID)
			if verr != nil {
				return fail(c, "checkout.load", verr)
			}
			fields, msg := formErrors(err)
			return render(c.Status(statusOf(err)), "checkout", fiber.Map{
				"Cart": cv, "Form": form, "PaymentMethods": domain.PaymentMethods,
				"Errors": fields, "Err": msg,
			})
		}
		return fail(c, "order.place", err)
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"total":        o.TotalAmount.StringFixed(2),
		"items":        o.ItemCount(),
	})
	return c.Redirect("/orders/" + strconv.FormatInt(o.ID, 10) + "?placed=1")
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Order.GetForUser(c.UserContext(), currentUser(c).ID, id)
	if apperr.Is(err, apperr.CodeNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return notFound(c, "Order not found")
	}
	if err != nil {
		return fail(c, "order.view", err)
	}
	return render(c, "order", fiber.Map{"Order": o, "Placed": c.Query("placed") == "1"})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	page := validate.Page(c.Query("page"))
	op, err := h.Order.ListForUser(c.UserContext(), currentUser(c).ID, page)
	if err != nil {
		return fail(c, "orders.history", err)
	}
	return render(c, "orders", fiber.Map{"Page": op})
}

// Cancel answers {success, message}; the order page calls it from script.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonResult(c, "order.cancel", apperr.New(apperr.CodeNotFound, "Order not found."), "", nil)
	}
	err := h.Order.CancelOrder(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		applog.Security(c, "order.cancel.fail", map[string]any{"order_id": id, "code": apperr.CodeOf(err)})
	} else {
		applog.Audit(c, "order.cancel", map[string]any{"order_id": id})
	}
	return jsonResult(c, "order.cancel", err, "Order cancelled.", nil)
}
