package handlers

import (
	"strconv"
	"strings"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	applog "petshop/internal/log"
	"petshop/internal/repos"
	"petshop/internal/services"
	"petshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Admin *services.AdminService
}

func badID(field string) error {
	return apperr.Validation(map[string]string{field: "must be a positive number"})
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Admin.Dashboard(c.UserContext())
	if err != nil {
		return fail(c, "admin.dashboard", err)
	}
	return render(c, "admin_dashboard", fiber.Map{"D": d})
}

// GET /admin/pets
func (h *AdminHandler) Pets(c *fiber.Ctx) error {
	catID, _ := validate.ID(c.Query("categoryId"))
	search := strings.TrimSpace(c.Query("search"))
	pp, err := h.Admin.ListPets(c.UserContext(), search, catID, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.pets.list", err)
	}
	cats, err := h.Admin.Categories(c.UserContext())
	if err != nil {
		return fail(c, "admin.pets.list", err)
	}
	return render(c, "admin_pets", fiber.Map{"Page": pp, "Categories": cats, "Search": search, "CategoryID": catID})
}

// GET /admin/orders
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	f := repos.OrderFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Page:   validate.Page(c.Query("page")),
	}
	if st, ok := domain.ParseOrderStatus(c.Query("status")); ok {
		f.Status = st
	}
	op, err := h.Admin.ListOrders(c.UserContext(), f)
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return render(c, "admin_orders", fiber.Map{"Page": op, "Statuses": domain.OrderStatuses})
}

// GET /admin/orders/:id
func (h *AdminHandler) Order(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Admin.GetOrder(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.orders.view", err)
	}
	return render(c, "admin_order", fiber.Map{"Order": o, "Statuses": domain.OrderStatuses})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonResult(c, "admin.orders.update", badID("id"), "", nil)
	}
	status := c.FormValue("status")
	err := h.Admin.UpdateOrderStatus(c.UserContext(), id, status)
	if err == nil {
		applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	}
	return jsonResult(c, "admin.orders.update", err, "Order status updated.", fiber.Map{"status": status})
}

// POST /admin/pets/:id/toggle-active
func (h *AdminHandler) TogglePetActive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonResult(c, "admin.pets.toggle_active", badID("id"), "", nil)
	}
	active, err := h.Admin.TogglePetActive(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "admin.pets.toggle_active", map[string]any{"pet_id": id, "active": active})
	}
	return jsonResult(c, "admin.pets.toggle_active", err, "Pet updated.", fiber.Map{"isActive": active})
}

// POST /admin/pets/:id/toggle-featured
func (h *AdminHandler) TogglePetFeatured(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonResult(c, "admin.pets.toggle_featured", badID("id"), "", nil)
	}
	featured, err := h.Admin.TogglePetFeatured(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "admin.pets.toggle_featured", map[string]any{"pet_id": id, "featured": featured})
	}
	return jsonResult(c, "admin.pets.toggle_featured", err, "Pet updated.", fiber.Map{"isFeatured": featured})
}

// POST /admin/pets/:id/stock
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonResult(c, "admin.pets.stock", badID("id"), "", nil)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil {
		return jsonResult(c, "admin.pets.stock", apperr.Validation(map[string]string{"qty": "must be a whole number"}), "", nil)
	}
	err = h.Admin.SetStock(c.UserContext(), id, qty)
	if err == nil {
		applog.Audit(c, "admin.pets.stock", map[string]any{"pet_id": id, "qty": qty})
	}
	return jsonResult(c, "admin.pets.stock", err, "Stock saved.", fiber.Map{"stock": qty})
}

// GET /admin/categories
func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Admin.Categories(c.UserContext())
	if err != nil {
		return fail(c, "admin.categories.list", err)
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

// GET /admin/users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))
	up, err := h.Admin.ListUsers(c.UserContext(), search, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	return render(c, "admin_users", fiber.Map{"Page": up})
}

func userJSON(u *domain.User) fiber.Map {
	dob := ""
	if u.DateOfBirth != nil {
		dob = u.DateOfBirth.Format("2006-01-02")
	}
	return fiber.Map{
		"id":          u.ID,
		"email":       u.Email,
		"fullName":    u.FullName,
		"phone":       u.Phone,
		"address":     u.Address,
		"dateOfBirth": dob,
		"role":        u.Role,
		"isActive":    u.IsActive,
		"createdAt":   u.CreatedAt,
	}
}

// GET /admin/users/:id
func (h *AdminHandler) User(c *fiber.Ctx) error {
	u, err := h.Admin.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return jsonResult(c, "admin.users.view", err, "", nil)
	}
	return jsonResult(c, "admin.users.view", nil, "", fiber.Map{"user": userJSON(u)})
}

// POST /admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var f services.AdminUserForm
	if err := c.BodyParser(&f); err != nil {
		return jsonResult(c, "admin.users.update", apperr.Validation(map[string]string{"form": "could not be read"}), "", nil)
	}
	id := c.Params("id")
	err := h.Admin.UpdateUser(c.UserContext(), id, f)
	if err == nil {
		applog.Audit(c, "admin.users.update", map[string]any{"target_user": id})
	}
	return jsonResult(c, "admin.users.update", err, "User saved.", nil)
}

// POST /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	id := c.Params("id")
	active := c.FormValue("active") == "true"
	if self := currentUser(c); self != nil && self.ID == id && !active {
		return jsonResult(c, "admin.users.active", apperr.New(apperr.CodeInvalidState, "You cannot deactivate your own account."), "", nil)
	}
	err := h.Admin.SetUserActive(c.UserContext(), id, active)
	if err == nil {
		applog.Audit(c, "admin.users.active", map[string]any{"target_user": id, "active": active})
	}
	return jsonResult(c, "admin.users.active", err, "User updated.", fiber.Map{"isActive": active})
}

// POST /admin/users/:id/delete
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if self := currentUser(c); self != nil && self.ID == id {
		return jsonResult(c, "admin.users.delete", apperr.New(apperr.CodeInvalidState, "You cannot delete your own account."), "", nil)
	}
	err := h.Admin.DeleteUser(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "admin.users.delete", map[string]any{"target_user": id})
	}
	return jsonResult(c, "admin.users.delete", err, "User deleted.", nil)
}

// GET /admin/statistics
func (h *AdminHandler) Statistics(c *fiber.Ctx) error {
	st, err := h.Admin.Statistics(c.UserContext())
	if err != nil {
		return fail(c, "admin.statistics", err)
	}
	return render(c, "admin_statistics", fiber.Map{"S": st})
}
