package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	"petshop/internal/repos"
	"petshop/internal/validate"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds        = apperr.New(apperr.CodeUnauthorized, "invalid email or password")
	ErrAccountDisabled = apperr.New(apperr.CodeUnauthorized, "account is disabled")
)

const dateLayout = "2006-01-02"

type RegisterForm struct {
	FullName        string `form:"full_name" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email,max=100"`
	Phone           string `form:"phone" validate:"omitempty,phone"`
	Address         string `form:"address" validate:"max=500"`
	DateOfBirth     string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Password        string `form:"password" validate:"required,password"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type ProfileForm struct {
	FullName    string `form:"full_name" validate:"required,max=100"`
	Phone       string `form:"phone" validate:"omitempty,phone"`
	Address     string `form:"address" validate:"max=500"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type PasswordForm struct {
	Current         string `form:"current_password" validate:"required"`
	New             string `form:"new_password" validate:"required,password"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=New"`
}

type AuthService struct {
	Users *repos.UserRepo
	// Cost is the bcrypt cost for new hashes.
	Cost int
}

func (s *AuthService) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// Register creates a Customer account and binds sid to it.
func (s *AuthService) Register(ctx context.Context, sid string, f RegisterForm) (*domain.User, error) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	if err := validate.Struct(&f); err != nil {
		return nil, err
	}
	if _, err := s.Users.ByEmail(ctx, f.Email); err == nil {
		return nil, apperr.Validation(map[string]string{"email": "is already registered"})
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "lookup email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.cost())
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "hash password")
	}
	u := domain.User{
		ID:          uuid.NewString(),
		Email:       f.Email,
		FullName:    f.FullName,
		Phone:       f.Phone,
		Address:     f.Address,
		DateOfBirth: parseDate(f.DateOfBirth),
		Hash:        string(hash),
		Role:        domain.RoleCustomer,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "create user")
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "bind session")
	}
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "bind session")
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "User not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "load profile")
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, f ProfileForm) (*domain.User, error) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	if err := validate.Struct(&f); err != nil {
		return nil, err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FullName, u.Phone, u.Address, u.DateOfBirth = f.FullName, f.Phone, f.Address, parseDate(f.DateOfBirth)
	if err := s.Users.UpdateProfile(ctx, *u); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "update profile")
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, f PasswordForm) error {
	if err := validate.Struct(&f); err != nil {
		return err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(f.Current)) != nil {
		return apperr.Validation(map[string]string{"current_password": "is incorrect"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(f.New), s.cost())
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "hash password")
	}
	if err := s.Users.SetPassword(ctx, userID, string(hash)); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "set password")
	}
	return nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
