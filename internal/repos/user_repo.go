package repos

import (
	"context"
	"strings"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.email, u.full_name, u.phone, u.address, u.date_of_birth, u.password_hash, u.role, u.is_active, u.created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users u WHERE LOWER(u.email) = LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO users(id, email, full_name, phone, address, date_of_birth, password_hash, role, is_active, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?)
	`, u.ID, strings.TrimSpace(u.Email), u.FullName, u.Phone, u.Address, u.DateOfBirth, u.Hash, u.Role, u.IsActive,
		createdAt(u.CreatedAt))
	return err
}

// UpdateProfile writes the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	res, err := r.DB.ExecContext(ctx, `
	  UPDATE users SET full_name = ?, phone = ?, address = ?, date_of_birth = ?, updated_at = ?
	  WHERE id = ?
	`, u.FullName, u.Phone, u.Address, u.DateOfBirth, time.Now().UTC(), u.ID)
	return oneRow(res, err)
}

// UpdateAdmin writes the fields the back-office may change.
func (r *UserRepo) UpdateAdmin(ctx context.Context, u domain.User) error {
	res, err := r.DB.ExecContext(ctx, `
	  UPDATE users SET full_name = ?, email = ?, phone = ?, address = ?, date_of_birth = ?, is_active = ?, updated_at = ?
	  WHERE id = ?
	`, u.FullName, strings.TrimSpace(u.Email), u.Phone, u.Address, u.DateOfBirth, u.IsActive, time.Now().UTC(), u.ID)
	return oneRow(res, err)
}

func (r *UserRepo) SetPassword(ctx context.Context, userID, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), userID)
	return oneRow(res, err)
}

func (r *UserRepo) SetActive(ctx context.Context, userID string, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), userID)
	return oneRow(res, err)
}

// Delete removes the user. Sessions are detached and cart lines cascade;
// orders restrict the delete.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return oneRow(res, err)
}

type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}

func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]domain.User, int, error) {
	where := "1=1"
	var args []any
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + q + "%"
		where += " AND (LOWER(u.email) LIKE ? OR LOWER(u.full_name) LIKE ? OR u.phone LIKE ?)"
		args = append(args, like, like, like)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.DB, &total, `SELECT COUNT(*) FROM users u WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	size := f.PageSize
	if size <= 0 {
		size = 10
	}
	limit, offset := page(f.Page, size)
	out := []domain.User{}
	err := sqlx.SelectContext(ctx, r.DB, &out, `SELECT `+userColumns+` FROM users u WHERE `+where+`
  ORDER BY u.created_at DESC, u.email
  LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	return out, total, err
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.DB, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO sessions(id, user_id, last_seen) VALUES (?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen
	`, sid, userID, time.Now().UTC())
	return err
}

// SessionUser resolves the active user bound to sid.
func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, `
      SELECT `+userColumns+`
      FROM sessions s
      JOIN users u ON u.id = s.user_id
      WHERE s.id = ? AND u.is_active = 1`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id = NULL, last_seen = ? WHERE id = ?`, time.Now().UTC(), sid)
	return err
}

type rowsResult interface{ RowsAffected() (int64, error) }

func oneRow(res rowsResult, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}
