package handlers

import (
	"petshop/internal/apperr"
	applog "petshop/internal/log"

	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// The csrf middleware stores its token under "CSRFToken"; the cookie is the
	// fallback when a handler renders before the middleware ran.
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// fail renders the error page for err. Coded errors keep their status and
// public message; anything else is logged and shown as a generic failure.
func fail(c *fiber.Ctx, action string, err error) error {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Wrap(apperr.CodeInternal, err, action)
	}
	meta := apperr.MetadataFor(ae.Code())
	if meta.HTTPStatus >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, map[string]any{"code": ae.Code()})
	}
	return c.Status(meta.HTTPStatus).Render("notfound", fiber.Map{"Message": ae.Public()})
}

// jsonResult answers the {success, message} endpoints used by the
// storefront scripts and the back-office.
func jsonResult(c *fiber.Ctx, action string, err error, okMsg string, extra fiber.Map) error {
	if err == nil {
		out := fiber.Map{"success": true, "message": okMsg}
		for k, v := range extra {
			out[k] = v
		}
		return c.JSON(out)
	}
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Wrap(apperr.CodeInternal, err, action)
	}
	meta := apperr.MetadataFor(ae.Code())
	if meta.HTTPStatus >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, map[string]any{"code": ae.Code()})
	}
	out := fiber.Map{"success": false, "message": ae.Public(), "code": ae.Code()}
	if f := ae.Fields(); len(f) > 0 {
		out["errors"] = f
	}
	return c.Status(meta.HTTPStatus).JSON(out)
}

// formErrors pulls field messages out of a validation error for re-rendering
// a form. Other errors come back as a single message.
func formErrors(err error) (map[string]string, string) {
	ae := apperr.As(err)
	if ae == nil {
		return nil, "Something went wrong. Please try again."
	}
	return ae.Fields(), ae.Public()
}

func statusOf(err error) int {
	if ae := apperr.As(err); ae != nil {
		return apperr.MetadataFor(ae.Code()).HTTPStatus
	}
	return fiber.StatusInternalServerError
}

var errBadItem = apperr.Validation(map[string]string{"itemId": "is required"})
