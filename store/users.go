package store

import (
	"fmt"
	"time"
)

// User roles.
const (
	RoleFleetManager     = "FLEET_MANAGER"
	RoleDispatcher       = "DISPATCHER"
	RoleSafetyOfficer    = "SAFETY_OFFICER"
	RoleFinancialAnalyst = "FINANCIAL_ANALYST"
)

// ValidRole reports whether s is one of the defined roles.
func ValidRole(s string) bool {
	switch s {
	case RoleFleetManager, RoleDispatcher, RoleSafetyOfficer, RoleFinancialAnalyst:
		return true
	}
	return false
}

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

const userSelectCols = `id, name, email, password_hash, phone, role, is_active, last_login_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var isActive int
	var lastLogin, createdAt any
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &isActive, &lastLogin, &createdAt)
	if err != nil {
		return nil, err
	}
	u.IsActive = isActive != 0
	u.LastLoginAt = parseTimePtr(lastLogin)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (db *DB) CreateUser(u *User) error {
	if u.Role == "" {
		u.Role = RoleDispatcher
	}
	id, err := db.insertID(`INSERT INTO users (name, email, password_hash, phone, role, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Role, boolToInt(u.IsActive))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

func (db *DB) GetUser(id int64) (*User, error) {
	return scanUser(db.QueryRow(db.Q(`SELECT `+userSelectCols+` FROM users WHERE id=?`), id))
}

func (db *DB) GetUserByEmail(email string) (*User, error) {
	return scanUser(db.QueryRow(db.Q(`SELECT `+userSelectCols+` FROM users WHERE email=?`), email))
}

func (db *DB) TouchUserLogin(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE users SET last_login_at=datetime('now','localtime') WHERE id=?`), id)
	return err
}

func (db *DB) CountUsers() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
