package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// CreatedAtLayout is the date-only format stored on every record.
const CreatedAtLayout = "2006-01-02"

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Role         Role   `json:"role"`
	CreatedAt    string `json:"createdAt"`
}

// Public is the subset of a user that may leave the process.
type Public struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func Today(now time.Time) string {
	return now.UTC().Format(CreatedAtLayout)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// DemoPassword is shared by the seeded accounts so the app works out of the box.
const DemoPassword = "password123"

const DemoCreatedAt = "2025-01-01"

type DemoAccount struct {
	Name  string
	Email string
	Role  Role
}

func DemoAccounts() []DemoAccount {
	return []DemoAccount{
		{Name: "Admin User", Email: "admin@example.com", Role: RoleAdmin},
		{Name: "Regular User", Email: "user@example.com", Role: RoleUser},
	}
}
