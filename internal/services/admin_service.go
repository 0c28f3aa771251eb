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

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	AdminPageSize     = 10
	LowStockThreshold = 2
)

type AdminService struct {
	Pets   *repos.PetRepo
	Inv    *repos.InventoryRepo
	Cats   *repos.CategoryRepo
	Orders *repos.OrderRepo
	Users  *repos.UserRepo
	Stats  *repos.StatsRepo
	Now    func() time.Time
}

func NewAdminService(db *sqlx.DB) *AdminService {
	return &AdminService{
		Pets:   repos.NewPetRepo(db),
		Inv:    repos.NewInventoryRepo(db),
		Cats:   repos.NewCategoryRepo(db),
		Orders: repos.NewOrderRepo(db),
		Users:  repos.NewUserRepo(db),
		Stats:  repos.NewStatsRepo(db),
		Now:    time.Now,
	}
}

type Dashboard struct {
	TotalPets       int
	TotalCategories int
	TotalOrders     int
	TotalUsers      int
	Revenue         decimal.Decimal
	PendingOrders   int
	RecentOrders    []domain.Order
	TopPets         []domain.Pet
	LowStock        []domain.Pet
}

func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	steps := []func() error{
		func() error { d.TotalPets, err = s.Pets.Count(ctx); return err },
		func() error { d.TotalCategories, err = s.Cats.Count(ctx); return err },
		func() error { d.TotalOrders, err = s.Orders.Count(ctx); return err },
		func() error { d.TotalUsers, err = s.Users.Count(ctx); return err },
		func() error { d.Revenue, err = s.Stats.Revenue(ctx); return err },
		func() error { d.PendingOrders, err = s.Orders.CountByStatus(ctx, domain.OrderPending); return err },
		func() error { d.RecentOrders, err = s.Orders.Recent(ctx, 5); return err },
		func() error { d.TopPets, err = s.Pets.TopPicks(ctx, 5); return err },
		func() error { d.LowStock, err = s.Inv.LowStock(ctx, LowStockThreshold, 5); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Dashboard{}, apperr.Wrap(apperr.CodeInternal, err, "load dashboard")
		}
	}
	return d, nil
}

func (s *AdminService) ListPets(ctx context.Context, search string, categoryID int64, page int) (PetPage, error) {
	f := repos.PetFilter{Search: search, CategoryID: categoryID, Page: page, PageSize: AdminPageSize,
		Sort: repos.SortNewest, IncludeInactive: true}
	if f.Page < 1 {
		f.Page = 1
	}
	pets, total, err := s.Pets.List(ctx, f)
	if err != nil {
		return PetPage{}, apperr.Wrap(apperr.CodeInternal, err, "list pets")
	}
	return PetPage{Pets: pets, Filter: f, Page: f.Page, Total: total, TotalPages: totalPages(total, AdminPageSize)}, nil
}

type AdminOrderPage struct {
	Orders     []domain.Order
	Filter     repos.OrderFilter
	Page       int
	TotalPages int
	Total      int
}

func (s *AdminService) ListOrders(ctx context.Context, f repos.OrderFilter) (AdminOrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	f.PageSize = AdminPageSize
	orders, total, err := s.Orders.List(ctx, f)
	if err != nil {
		return AdminOrderPage{}, apperr.Wrap(apperr.CodeInternal, err, "list orders")
	}
	return AdminOrderPage{Orders: orders, Filter: f, Page: f.Page, Total: total, TotalPages: totalPages(total, AdminPageSize)}, nil
}

func (s *AdminService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "load order")
	}
	return &o, nil
}

// UpdateOrderStatus assigns any known status. It does not move stock, so
// setting Cancelled here leaves the sold units out of inventory.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	st, ok := domain.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		return apperr.Validation(map[string]string{"status": "is not a known order status"})
	}
	err := s.Orders.SetStatus(ctx, orderID, st)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.CodeNotFound, "Order not found.")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "update order status")
	}
	return nil
}

func (s *AdminService) TogglePetActive(ctx context.Context, petID int64) (bool, error) {
	return s.toggle(ctx, petID, s.Pets.ToggleActive)
}

func (s *AdminService) TogglePetFeatured(ctx context.Context, petID int64) (bool, error) {
	return s.toggle(ctx, petID, s.Pets.ToggleFeatured)
}

func (s *AdminService) toggle(ctx context.Context, petID int64, fn func(context.Context, int64) (bool, error)) (bool, error) {
	v, err := fn(ctx, petID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.New(apperr.CodeNotFound, "Pet not found.")
	}
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, err, "toggle pet")
	}
	return v, nil
}

// SetStock overwrites a pet's stock level. The active flag is left alone.
func (s *AdminService) SetStock(ctx context.Context, petID int64, qty int) error {
	if qty < 0 {
		return apperr.Validation(map[string]string{"stock_quantity": "must not be negative"})
	}
	if _, err := s.Inv.Qty(ctx, petID); errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.CodeNotFound, "Pet not found.")
	} else if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "load stock")
	}
	if err := s.Inv.SetQty(ctx, petID, qty); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "set stock")
	}
	return nil
}

func (s *AdminService) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.Cats.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "list categories")
	}
	return cats, nil
}

type UserPage struct {
	Users      []domain.User
	Search     string
	Page       int
	TotalPages int
	Total      int
}

func (s *AdminService) ListUsers(ctx context.Context, search string, page int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	users, total, err := s.Users.List(ctx, repos.UserFilter{Search: search, Page: page, PageSize: AdminPageSize})
	if err != nil {
		return UserPage{}, apperr.Wrap(apperr.CodeInternal, err, "list users")
	}
	return UserPage{Users: users, Search: search, Page: page, Total: total, TotalPages: totalPages(total, AdminPageSize)}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "User not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "load user")
	}
	return u, nil
}

type AdminUserForm struct {
	FullName    string `form:"full_name" validate:"required,max=100"`
	Email       string `form:"email" validate:"required,email,max=100"`
	Phone       string `form:"phone" validate:"omitempty,phone"`
	Address     string `form:"address" validate:"max=500"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	IsActive    bool   `form:"is_active"`
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, f AdminUserForm) error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	if err := validate.Struct(&f); err != nil {
		return err
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if other, err := s.Users.ByEmail(ctx, f.Email); err == nil && other.ID != u.ID {
		return apperr.Validation(map[string]string{"email": "is already registered"})
	}
	u.FullName, u.Email, u.Phone, u.Address = f.FullName, f.Email, strings.TrimSpace(f.Phone), strings.TrimSpace(f.Address)
	u.DateOfBirth, u.IsActive = parseDate(f.DateOfBirth), f.IsActive
	if err := s.Users.UpdateAdmin(ctx, *u); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "update user")
	}
	return nil
}

func (s *AdminService) SetUserActive(ctx context.Context, id string, active bool) error {
	err := s.Users.SetActive(ctx, id, active)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.CodeNotFound, "User not found.")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "set user active")
	}
	return nil
}

// DeleteUser removes an account that owns no orders.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	n, err := s.Orders.CountForUser(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "count user orders")
	}
	if n > 0 {
		return apperr.New(apperr.CodeInvalidState, "Users with orders cannot be deleted. Deactivate the account instead.")
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "delete user")
	}
	return nil
}

type MonthRevenue struct {
	Label   string
	Revenue decimal.Decimal
}

type Statistics struct {
	MonthlyRevenue []MonthRevenue
	OrdersByStatus []repos.StatusCount
	TopSelling     []repos.TopSeller
	CategoryStats  []repos.CategoryStat
}

// Statistics reports delivered revenue for each of the last 12 months
// (zero-filled, labelled MM/YYYY) plus order and category breakdowns.
func (s *AdminService) Statistics(ctx context.Context) (Statistics, error) {
	now := s.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	rows, err := s.Stats.MonthlyRevenue(ctx, start)
	if err != nil {
		return Statistics{}, apperr.Wrap(apperr.CodeInternal, err, "monthly revenue")
	}
	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r.Revenue
	}
	var st Statistics
	for i := 0; i < 12; i++ {
		m := start.AddDate(0, i, 0)
		rev, ok := byMonth[m.Format("2006-01")]
		if !ok {
			rev = decimal.Zero
		}
		st.MonthlyRevenue = append(st.MonthlyRevenue, MonthRevenue{Label: m.Format("01/2006"), Revenue: rev})
	}

	if st.OrdersByStatus, err = s.Stats.OrdersByStatus(ctx); err != nil {
		return Statistics{}, apperr.Wrap(apperr.CodeInternal, err, "orders by status")
	}
	if st.TopSelling, err = s.Stats.TopSelling(ctx, 10); err != nil {
		return Statistics{}, apperr.Wrap(apperr.CodeInternal, err, "top selling")
	}
	if st.CategoryStats, err = s.Stats.CategoryStats(ctx); err != nil {
		return Statistics{}, apperr.Wrap(apperr.CodeInternal, err, "category stats")
	}
	return st, nil
}
