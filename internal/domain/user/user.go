package user

import (
	"context"
	"time"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = apperr.NotFound("User not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = apperr.BadRequest("Email already in use")
	// ErrInvalidCredentials is returned by Login for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")
	// ErrMissingFields is returned when registration input is incomplete.
	ErrMissingFields = apperr.BadRequest("Please provide name, email and password")
)

// User is a registered customer or administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetRole(ctx context.Context, email string, role Role) (*User, error)
}
