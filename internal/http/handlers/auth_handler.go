package handlers

import (
	"errors"
	"time"

	"petshop/internal/apperr"
	"petshop/internal/log"
	"petshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
}

func (h *AuthHandler) setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookies,
		Expires:  expires,
	})
}

// rotateSID issues a fresh session id so a pre-login id is never promoted.
func (h *AuthHandler) rotateSID(c *fiber.Ctx) string {
	sid := uuid.NewString()
	h.setSID(c, sid, time.Time{})
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Err": "", "ReturnURL": localPath(c.Query("returnUrl"))})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	ret := localPath(c.FormValue("returnUrl"))

	u, err := h.Auth.Login(c.UserContext(), h.rotateSID(c), email, pass)
	if err != nil {
		reason := "bad_credentials"
		msg := "Invalid email or password"
		if errors.Is(err, services.ErrAccountDisabled) {
			reason, msg = "disabled", "This account has been disabled."
		} else if !apperr.Is(err, apperr.CodeUnauthorized) {
			log.Error(c, "auth.login.error", err, nil)
			msg = "Something went wrong. Please try again."
		}
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{
			"Err": msg, "Email": email, "ReturnURL": ret,
		})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": u.Email, "user_id": u.ID})
	if u.IsAdmin() && ret == "/" {
		return c.Redirect("/admin")
	}
	return c.Redirect(ret)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sidCookie); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.error", err, nil)
		}
	}
	h.setSID(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return render(c, "register", fiber.Map{"Form": services.RegisterForm{}})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var f services.RegisterForm
	if err := c.BodyParser(&f); err != nil {
		log.Security(c, "validation.fail", map[string]any{"form": "register"})
		return render(c.Status(fiber.StatusBadRequest), "register", fiber.Map{"Form": f, "Err": "Invalid form submission"})
	}
	u, err := h.Auth.Register(c.UserContext(), h.rotateSID(c), f)
	if err != nil {
		fields, msg := formErrors(err)
		log.Security(c, "auth.register.fail", map[string]any{"email": f.Email, "fields": fields})
		f.Password, f.ConfirmPassword = "", ""
		return render(c.Status(statusOf(err)), "register", fiber.Map{
			"Form": f, "Errors": fields, "Err": msg,
		})
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "email": u.Email})
	return c.Redirect("/")
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u, err := h.Auth.Profile(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "account.profile.load", err)
	}
	return render(c, "profile", fiber.Map{"Profile": u, "Saved": c.Query("saved") == "1"})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var f services.ProfileForm
	if err := c.BodyParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid form submission"})
	}
	u := currentUser(c)
	if _, err := h.Auth.UpdateProfile(c.UserContext(), u.ID, f); err != nil {
		fields, msg := formErrors(err)
		return render(c.Status(statusOf(err)), "profile", fiber.Map{
			"Profile": u, "Errors": fields, "Err": msg,
		})
	}
	log.Audit(c, "account.profile.update", nil)
	return c.Redirect("/account/profile?saved=1")
}

func (h *AuthHandler) PasswordForm(c *fiber.Ctx) error {
	return render(c, "password", fiber.Map{"Saved": c.Query("saved") == "1"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var f services.PasswordForm
	if err := c.BodyParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid form submission"})
	}
	u := currentUser(c)
	if err := h.Auth.ChangePassword(c.UserContext(), u.ID, f); err != nil {
		fields, msg := formErrors(err)
		log.Security(c, "account.password.fail", map[string]any{"fields": fields})
		return render(c.Status(statusOf(err)), "password", fiber.Map{
			"Errors": fields, "Err": msg,
		})
	}
	log.Audit(c, "account.password.change", nil)
	return c.Redirect("/account/password?saved=1")
}
