package users

import "time"

// User is an account that owns documents.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created through Google sign-in start without one.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
