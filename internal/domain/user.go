package domain

import "time"

const (
	RoleCustomer = "Customer"
	RoleAdmin    = "Admin"
)

type User struct {
	ID          string     `db:"id"`
	Email       string     `db:"email"`
	FullName    string     `db:"full_name"`
	Phone       string     `db:"phone"`
	Address     string     `db:"address"`
	DateOfBirth *time.Time `db:"date_of_birth"`
	Hash        string     `db:"password_hash"`
	Role        string     `db:"role"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// UserID lets loggers tag entries without importing this package.
func (u *User) UserID() string {
	if u == nil {
		return ""
	}
	return u.ID
}
