package repository

import (
	"context"
	"errors"
	"time"
)

// User is the domain model backed by the users table.
type User struct {
	ID        int64
	Name      string
	Email     string
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate carries a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name  *string
	Email *string
	Bio   *string
}

// UserRepository defines the storage contract the service layer depends on.
// Implementations must map storage-level conflicts to the sentinel errors
// below so callers never inspect driver errors.
type UserRepository interface {
	// Create inserts a new user and returns it with generated fields set.
	// Returns ErrEmailTaken if the email is already in use.
	Create(ctx context.Context, name, email string, bio *string) (User, error)

	// GetByID returns ErrNotFound if no user has the given id.
	GetByID(ctx context.Context, id int64) (User, error)

	// GetByEmail returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// List returns all users ordered by id.
	List(ctx context.Context) ([]User, error)

	// Update applies the non-nil fields of upd.
	// Returns ErrNotFound for a missing id, ErrEmailTaken on conflict.
	Update(ctx context.Context, id int64, upd UserUpdate) (User, error)

	// Delete returns ErrNotFound if no user had the given id.
	Delete(ctx context.Context, id int64) error
}

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned when an email is already in use by another user.
var ErrEmailTaken = errors.New("email already taken")
