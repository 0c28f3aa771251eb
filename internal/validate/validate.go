package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"petshop/internal/apperr"
	"petshop/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	reQ     = regexp.MustCompile(`^[\p{L}0-9 _'.\-]{1,50}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{7,18}$`)
)

const MaxCartQty = 99

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return rePhone.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	_ = val.RegisterValidation("paymethod", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParsePaymentMethod(fl.Field().String())
		return ok
	})
	return val
}

// Struct validates dest by its struct tags. Failures come back as an
// apperr validation error keyed by form field name.
func Struct(dest any) error {
	if err := v.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *apperr.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fe := range errs {
			details[fe.Field()] = validationMessage(fe)
		}
		return apperr.Validation(details)
	}
	return apperr.Wrap(apperr.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "phone":
		return "must be a valid phone number"
	case "password":
		return "must be at least 6 characters with a digit and a lowercase letter"
	case "paymethod":
		return "is not a supported payment method"
	case "eqfield":
		return "does not match"
	}
	return "is invalid"
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Qty parses a cart quantity, clamped to 1..MaxCartQty.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxCartQty {
		return MaxCartQty
	}
	return n
}

// ID parses a positive integer resource id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// Page parses a 1-based page number, defaulting to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Password requires at least six characters, one digit and one lowercase letter.
func Password(s string) bool {
	if len(s) < 6 || len(s) > 100 {
		return false
	}
	var hasLower, hasDigit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLower && hasDigit
}
