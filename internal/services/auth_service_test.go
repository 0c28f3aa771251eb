package services_test

import (
	"context"
	"testing"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	"petshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerForm() services.RegisterForm {
	return services.RegisterForm{
		FullName:        "Carol Tran",
		Email:           "  Carol@Example.com ",
		Phone:           "0901234567",
		DateOfBirth:     "1995-04-01",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegister_CreatesCustomerAndSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.auth.Register(ctx, "sid-1", registerForm())
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	require.NotNil(t, u.DateOfBirth)
	assert.Equal(t, 1995, u.DateOfBirth.Year())

	cur, err := e.auth.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	_, err = e.auth.Register(ctx, "sid-2", registerForm())
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code())
	assert.Contains(t, ae.Fields(), "email")
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	f := registerForm()
	f.Password, f.ConfirmPassword = "short", "other"
	f.Email = "not-an-email"

	_, err := e.auth.Register(context.Background(), "sid", f)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Contains(t, ae.Fields(), "password")
	assert.Contains(t, ae.Fields(), "confirm_password")
	assert.Contains(t, ae.Fields(), "email")
}

func TestLoginLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, "reg", registerForm())
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "s1", "carol@example.com", "wrong1")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = e.auth.Login(ctx, "s1", "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	got, err := e.auth.Login(ctx, "s1", "CAROL@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, e.auth.Logout(ctx, "s1"))
	_, err = e.auth.CurrentUser(ctx, "s1")
	assert.Error(t, err)
}

func TestLogin_DisabledAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, "reg", registerForm())
	require.NoError(t, err)
	require.NoError(t, e.admin.SetUserActive(ctx, u.ID, false))

	_, err = e.auth.Login(ctx, "s1", "carol@example.com", "secret1")
	assert.ErrorIs(t, err, services.ErrAccountDisabled)
	_, err = e.auth.CurrentUser(ctx, "reg")
	assert.Error(t, err, "disabled users lose their sessions")
}

func TestProfileAndPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, "reg", registerForm())
	require.NoError(t, err)

	upd, err := e.auth.UpdateProfile(ctx, u.ID, services.ProfileForm{FullName: " Carol T. ", Address: "1 Pet Lane"})
	require.NoError(t, err)
	assert.Equal(t, "Carol T.", upd.FullName)
	assert.Nil(t, upd.DateOfBirth)

	p, err := e.auth.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Pet Lane", p.Address)

	err = e.auth.ChangePassword(ctx, u.ID, services.PasswordForm{Current: "bad", New: "newpass1", ConfirmPassword: "newpass1"})
	assert.Contains(t, apperr.As(err).Fields(), "current_password")

	require.NoError(t, e.auth.ChangePassword(ctx, u.ID, services.PasswordForm{Current: "secret1", New: "newpass1", ConfirmPassword: "newpass1"}))
	_, err = e.auth.Login(ctx, "s2", "carol@example.com", "newpass1")
	require.NoError(t, err)
}
