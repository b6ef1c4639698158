package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// Repo persists users. Emails are stored normalized; lookups expect
// normalized input.
type Repo interface {
	Create(ctx context.Context, user User) error
	Update(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
