package server

import (
	"time"

	"petshop/internal/http/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func (a *App) routes() {
	app := a.Fiber
	d := a.Deps
	user := handlers.RequireUser(d.Auth)

	app.Use("/static", staticFiles())

	// Public pages
	app.Get("/", d.CategoryHandler.Home)
	app.Get("/categories", d.CategoryHandler.List)
	app.Get("/categories/:id", d.CategoryHandler.Show)
	app.Get("/pets", d.ProductHandler.List)
	app.Get("/pets/featured", d.ProductHandler.Featured)
	app.Get("/pets/search", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute, Storage: a.storage}), d.SearchHandler.Search)
	app.Get("/pets/category/:id", d.ProductHandler.Category)
	app.Get("/pets/:id", d.ProductHandler.Detail)

	api := app.Group("/api/v1")
	api.Get("/availability", d.InventoryHandler.Check)

	// Account
	acct := app.Group("/account")
	acct.Get("/register", d.AuthHandler.RegisterForm)
	acct.Post("/register", a.loginLimiter(), d.AuthHandler.Register)
	acct.Get("/login", d.AuthHandler.LoginForm)
	acct.Post("/login", a.loginLimiter(), d.AuthHandler.Login)
	acct.Post("/logout", d.AuthHandler.Logout)
	acct.Get("/profile", user, d.AuthHandler.Profile)
	acct.Post("/profile", user, d.AuthHandler.UpdateProfile)
	acct.Get("/password", user, d.AuthHandler.PasswordForm)
	acct.Post("/password", user, d.AuthHandler.ChangePassword)

	// Cart & Orders
	app.Get("/cart/count", d.CartHandler.Count)
	cart := app.Group("/cart", user)
	cart.Get("/", d.CartHandler.View)
	cart.Post("/add", d.CartHandler.Add)
	cart.Post("/update", d.CartHandler.Update)
	cart.Post("/remove", d.CartHandler.Remove)
	cart.Post("/clear", d.CartHandler.Clear)

	orders := app.Group("/orders", user)
	orders.Get("/", d.OrderHandler.History)
	orders.Get("/checkout", d.OrderHandler.Checkout)
	orders.Post("/checkout", d.OrderHandler.Place)
	orders.Get("/:id", d.OrderHandler.View)
	orders.Post("/:id/cancel", d.OrderHandler.Cancel)

	// Admin
	adm := app.Group("/admin", handlers.RequireAdmin(d.Auth))
	ah := d.AdminHandler
	adm.Get("/", ah.Dashboard)
	adm.Get("/pets", ah.Pets)
	adm.Post("/pets/:id/toggle-active", ah.TogglePetActive)
	adm.Post("/pets/:id/toggle-featured", ah.TogglePetFeatured)
	adm.Post("/pets/:id/stock", ah.SetStock)
	adm.Get("/orders", ah.Orders)
	adm.Get("/orders/:id", ah.Order)
	adm.Post("/orders/:id/status", ah.UpdateOrderStatus)
	adm.Get("/categories", ah.Categories)
	adm.Get("/users", ah.Users)
	adm.Get("/users/:id", ah.User)
	adm.Post("/users/:id", ah.UpdateUser)
	adm.Post("/users/:id/active", ah.SetUserActive)
	adm.Post("/users/:id/delete", ah.DeleteUser)
	adm.Get("/statistics", ah.Statistics)

	// Health & 404
	app.Get("/healthz", a.health)
	if a.Metrics != nil {
		app.Get("/metrics", a.Metrics.Handler())
	}
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
}

func (a *App) health(c *fiber.Ctx) error {
	if err := a.db.PingContext(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true})
}
