package repos

import (
	"context"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryColumns = `c.id, c.name, c.description, c.image_url, c.is_active, c.display_order, c.created_at`

// ListActive returns active categories by display order, each with the
// number of active pets it holds.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.db, &out, `
  SELECT `+categoryColumns+`,
    (SELECT COUNT(*) FROM pets p WHERE p.category_id = c.id AND p.is_active = 1) AS pet_count
  FROM categories c
  WHERE c.is_active = 1
  ORDER BY c.display_order, c.name
`)
	return out, err
}

// ListAll is the back-office view; pet_count includes inactive pets.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.db, &out, `
  SELECT `+categoryColumns+`,
    (SELECT COUNT(*) FROM pets p WHERE p.category_id = c.id) AS pet_count
  FROM categories c
  ORDER BY c.display_order, c.name
`)
	return out, err
}

// GetActive returns an active category or ErrNoRows.
func (r *CategoryRepo) GetActive(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, `
  SELECT `+categoryColumns+`,
    (SELECT COUNT(*) FROM pets p WHERE p.category_id = c.id AND p.is_active = 1) AS pet_count
  FROM categories c
  WHERE c.id = ? AND c.is_active = 1
`, id)
	return c, err
}

func (r *CategoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM categories`)
	return n, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO categories(name, description, image_url, is_active, display_order, created_at)
	  VALUES (?,?,?,?,?,?)
	`, c.Name, c.Description, c.ImageURL, c.IsActive, c.DisplayOrder, createdAt(c.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
