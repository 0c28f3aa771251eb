package handlers

import (
	"net/url"

	"petshop/internal/domain"
	applog "petshop/internal/log"
	"petshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sidCookie = "sid"

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// AttachUser puts the signed-in user, if any, into Locals for templates and
// the access log.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sidCookie); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// localPath keeps post-login redirects on this site.
func localPath(p string) string {
	if p == "" || p[0] != '/' || (len(p) > 1 && (p[1] == '/' || p[1] == '\\')) {
		return "/"
	}
	return p
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if sid == "" {
			return c.Redirect("/account/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			return c.Redirect("/account/login")
		}
		if !u.IsAdmin() {
			c.Locals("user", u)
			applog.Security(c, "access.denied.admin", map[string]any{"path": c.Path()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if sid == "" {
			return c.Redirect("/account/login?returnUrl=" + url.QueryEscape(c.OriginalURL()))
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			return c.Redirect("/account/login?returnUrl=" + url.QueryEscape(c.OriginalURL()))
		}
		c.Locals("user", u)
		return c.Next()
	}
}
