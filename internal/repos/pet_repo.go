package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PetRepo struct{ db sqlx.ExtContext }

func NewPetRepo(db sqlx.ExtContext) *PetRepo { return &PetRepo{db: db} }

// WithTx returns a copy bound to tx.
func (r *PetRepo) WithTx(tx *sqlx.Tx) *PetRepo { return &PetRepo{db: tx} }

const petColumns = `
    p.id, p.category_id, c.name AS category_name, p.name, p.breed, p.age_months,
    p.gender, p.weight, p.color, p.description, p.price, p.sale_price,
    p.stock_quantity, p.main_image_url, p.is_featured, p.is_active, p.is_vaccinated,
    p.is_dewormed, p.health_status, p.care_instructions, p.created_at, p.updated_at
  FROM pets p
  JOIN categories c ON c.id = p.category_id`

const effectivePrice = `COALESCE(p.sale_price, p.price)`

type PetSort string

const (
	SortDefault   PetSort = ""
	SortPriceAsc  PetSort = "price_asc"
	SortPriceDesc PetSort = "price_desc"
	SortName      PetSort = "name"
	SortNewest    PetSort = "newest"
)

type PetFilter struct {
	CategoryID int64
	// Search matches name or breed; FullText adds description.
	Search   string
	FullText bool
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Sort     PetSort
	Page     int
	PageSize int
	// IncludeInactive is for back-office listings.
	IncludeInactive bool
}

func (f PetFilter) where() (string, []any) {
	conds := []string{"1=1"}
	var args []any
	if !f.IncludeInactive {
		conds = append(conds, "p.is_active = 1")
	}
	if f.CategoryID > 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + q + "%"
		if f.FullText {
			conds = append(conds, "(LOWER(p.name) LIKE ? OR LOWER(p.breed) LIKE ? OR LOWER(p.description) LIKE ?)")
			args = append(args, like, like, like)
		} else {
			conds = append(conds, "(LOWER(p.name) LIKE ? OR LOWER(p.breed) LIKE ?)")
			args = append(args, like, like)
		}
	}
	// Bound as floats: the COALESCE has no column affinity, so a text
	// parameter would never compare numerically.
	if f.MinPrice.Valid {
		conds = append(conds, effectivePrice+" >= ?")
		args = append(args, f.MinPrice.Decimal.InexactFloat64())
	}
	if f.MaxPrice.Valid {
		conds = append(conds, effectivePrice+" <= ?")
		args = append(args, f.MaxPrice.Decimal.InexactFloat64())
	}
	return strings.Join(conds, " AND "), args
}

func (s PetSort) orderBy() string {
	switch s {
	case SortPriceAsc:
		return effectivePrice + " ASC, p.id"
	case SortPriceDesc:
		return effectivePrice + " DESC, p.id"
	case SortName:
		return "p.name ASC, p.id"
	case SortNewest:
		return "p.created_at DESC, p.id DESC"
	default:
		return "p.is_featured DESC, p.created_at DESC, p.id DESC"
	}
}

// List returns one page of pets matching f and the total match count.
func (r *PetRepo) List(ctx context.Context, f PetFilter) ([]domain.Pet, int, error) {
	where, args := f.where()

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total,
		`SELECT COUNT(*) FROM pets p WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	size := f.PageSize
	if size <= 0 {
		size = 12
	}
	limit, offset := page(f.Page, size)
	q := `SELECT ` + petColumns + ` WHERE ` + where + ` ORDER BY ` + f.Sort.orderBy() + ` LIMIT ? OFFSET ?`

	var out []domain.Pet
	if err := sqlx.SelectContext(ctx, r.db, &out, q, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get returns the pet regardless of its active flag.
func (r *PetRepo) Get(ctx context.Context, id int64) (domain.Pet, error) {
	var p domain.Pet
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+petColumns+` WHERE p.id = ?`, id)
	return p, err
}

func (r *PetRepo) Featured(ctx context.Context, n int) ([]domain.Pet, error) {
	var out []domain.Pet
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+petColumns+`
  WHERE p.is_active = 1 AND p.is_featured = 1
  ORDER BY p.created_at DESC, p.id DESC
  LIMIT ?`, n)
	return out, err
}

func (r *PetRepo) Latest(ctx context.Context, n int) ([]domain.Pet, error) {
	var out []domain.Pet
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+petColumns+`
  WHERE p.is_active = 1
  ORDER BY p.created_at DESC, p.id DESC
  LIMIT ?`, n)
	return out, err
}

// Related returns other active pets of the same category.
func (r *PetRepo) Related(ctx context.Context, pet domain.Pet, n int) ([]domain.Pet, error) {
	var out []domain.Pet
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+petColumns+`
  WHERE p.is_active = 1 AND p.category_id = ? AND p.id <> ?
  ORDER BY p.is_featured DESC, p.created_at DESC, p.id DESC
  LIMIT ?`, pet.CategoryID, pet.ID, n)
	return out, err
}

// TopPicks is the dashboard list: featured first, then newest.
func (r *PetRepo) TopPicks(ctx context.Context, n int) ([]domain.Pet, error) {
	var out []domain.Pet
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+petColumns+`
  ORDER BY p.is_featured DESC, p.created_at DESC, p.id DESC
  LIMIT ?`, n)
	return out, err
}

func (r *PetRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM pets`)
	return n, err
}

// ToggleFeatured flips is_featured and returns the new value.
func (r *PetRepo) ToggleFeatured(ctx context.Context, id int64) (bool, error) {
	return r.toggle(ctx, id, "is_featured")
}

// ToggleActive flips is_active and returns the new value.
func (r *PetRepo) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return r.toggle(ctx, id, "is_active")
}

func (r *PetRepo) toggle(ctx context.Context, id int64, column string) (bool, error) {
	var v bool
	q := fmt.Sprintf(`UPDATE pets SET %[1]s = 1 - %[1]s, updated_at = ? WHERE id = ? RETURNING %[1]s`, column)
	err := sqlx.GetContext(ctx, r.db, &v, q, time.Now().UTC(), id)
	return v, err
}

// Create inserts a pet and returns its id. Used by seeding and tests.
func (r *PetRepo) Create(ctx context.Context, p domain.Pet) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO pets(
	    category_id, name, breed, age_months, gender, weight, color, description,
	    price, sale_price, stock_quantity, main_image_url, is_featured, is_active,
	    is_vaccinated, is_dewormed, health_status, care_instructions, created_at
	  ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, p.CategoryID, p.Name, p.Breed, p.AgeMonths, p.Gender, p.Weight, p.Color, p.Description,
		p.Price, p.SalePrice, p.StockQuantity, p.MainImageURL, p.IsFeatured, p.IsActive,
		p.IsVaccinated, p.IsDewormed, p.HealthStatus, p.CareInstructions, createdAt(p.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
