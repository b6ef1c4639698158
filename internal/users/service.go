package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"receipt-backend/internal/shared/telemetry"
)

// TokenIssuer signs and verifies access tokens whose subject is the user email.
type TokenIssuer interface {
	Sign(subject string) (string, error)
	Verify(token string) (string, error)
}

type Service struct {
	Repo   Repo
	Tokens TokenIssuer
	// HashCost overrides the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
	Now      func() time.Time
}

func NewService(repo Repo, tokens TokenIssuer) *Service {
	return &Service{Repo: repo, Tokens: tokens, Now: time.Now}
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a password account and returns an access token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return "", User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	hash, err := hashPassword(in.Password, s.HashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", User{}, fmt.Errorf("%w: password too long", ErrInvalidInput)
		}
		return "", User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return "", User{}, err
	}

	token, err := s.Tokens.Sign(user.Email)
	if err != nil {
		return "", User{}, err
	}
	telemetry.Info("user.registered", map[string]any{"user_id": user.ID})
	return token, user, nil
}

// Login verifies a password and returns a fresh access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.HasPassword() {
		return "", ErrInvalidCredentials
	}
	ok, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.Sign(user.Email)
}

// Authenticate resolves a bearer token to its user. A valid token whose
// email no longer maps to an account is rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	subject, err := s.Tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	user, err := s.Repo.GetByEmail(ctx, NormalizeEmail(subject))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	return user, nil
}

// LoginFederated finds or creates the account for an externally verified
// email and returns an access token for it.
func (s *Service) LoginFederated(ctx context.Context, email, name string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		now := s.now()
		user = User{ID: uuid.NewString(), Email: email, Name: strings.TrimSpace(name), CreatedAt: now, UpdatedAt: now}
		if err := s.Repo.Create(ctx, user); err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return "", err
		}
		telemetry.Info("user.registered", map[string]any{"user_id": user.ID, "provider": "google"})
	case err != nil:
		return "", err
	}
	return s.Tokens.Sign(email)
}

// EnsureAdmin makes sure an admin account exists for email. An existing
// account is promoted; its password is only set when it has none.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: admin email and password are required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		hash, err := hashPassword(password, s.HashCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		now := s.now()
		admin := User{ID: uuid.NewString(), Email: email, Name: "Admin", PasswordHash: hash, IsAdmin: true, CreatedAt: now, UpdatedAt: now}
		if err := s.Repo.Create(ctx, admin); err != nil {
			return err
		}
		telemetry.Info("user.admin_seeded", map[string]any{"user_id": admin.ID})
		return nil
	}
	if err != nil {
		return err
	}

	if user.IsAdmin && user.HasPassword() {
		return nil
	}
	user.IsAdmin = true
	if !user.HasPassword() {
		if user.PasswordHash, err = hashPassword(password, s.HashCost); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}
	user.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, user); err != nil {
		return err
	}
	telemetry.Info("user.admin_promoted", map[string]any{"user_id": user.ID})
	return nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
