package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	repo "github.com/oksasatya/go-credential-service/internal/domain/repository"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
)

// CredentialStore is the identity backend the account flows run against.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User, password string) error
	ValidatePassword(password string) error
	GeneratePasswordResetToken(ctx context.Context, u *entity.User) (string, error)
	ResetPassword(ctx context.Context, u *entity.User, token, newPassword string) error
	PasswordSignIn(ctx context.Context, username, password string, rememberMe bool) (*SignInResult, error)
	MarkEmailVerified(ctx context.Context, u *entity.User) error
}

// SignInResult is returned by a successful password sign-in.
type SignInResult struct {
	User        *entity.User
	AccessToken string
	ExpiresAt   time.Time
	Persistent  bool
}

const minPasswordLength = 8

// dummyHash keeps sign-in timing similar for unknown usernames.
var dummyHash, _ = helpers.HashPassword("dummy-password-for-timing")

// IdentityManager implements CredentialStore over a UserRepository, bcrypt and
// signed reset tokens.
type IdentityManager struct {
	Repo repo.UserRepository
	JWT  *helpers.JWTManager
	// RequireConfirmedEmail rejects sign-in for unverified identities.
	RequireConfirmedEmail bool
}

func NewIdentityManager(repo repo.UserRepository, jwt *helpers.JWTManager, requireConfirmedEmail bool) *IdentityManager {
	return &IdentityManager{Repo: repo, JWT: jwt, RequireConfirmedEmail: requireConfirmedEmail}
}

func (m *IdentityManager) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.find(m.Repo.GetByEmail(ctx, strings.TrimSpace(email)))
}

func (m *IdentityManager) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.find(m.Repo.GetByUsername(ctx, strings.TrimSpace(username)))
}

func (m *IdentityManager) find(u *entity.User, err error) (*entity.User, error) {
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create hashes password and stores u as an unverified identity.
func (m *IdentityManager) Create(ctx context.Context, u *entity.User, password string) error {
	if err := m.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.PasswordHash = hash
	u.SecurityStamp = uuid.NewString()
	u.IsVerified = false

	err = m.Repo.Create(ctx, u)
	var dup *repo.DuplicateError
	if errors.As(err, &dup) {
		return conflictFor(dup.Field)
	}
	return err
}

func conflictFor(field string) *ConflictError {
	if field == "username" {
		return &ConflictError{Field: "username", Message: "This username is already in use."}
	}
	return &ConflictError{Field: "email", Message: "This email is already in use."}
}

// ValidatePassword applies the password policy: at least 8 characters with an
// upper-case letter, a lower-case letter, a digit and a symbol, and no more
// than bcrypt can hash.
func (m *IdentityManager) ValidatePassword(password string) error {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	var problems []string
	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters long", minPasswordLength))
	}
	if len(password) > helpers.MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("must be at most %d bytes long", helpers.MaxPasswordBytes))
	}
	if !upper {
		problems = append(problems, "must contain an upper-case letter")
	}
	if !lower {
		problems = append(problems, "must contain a lower-case letter")
	}
	if !digit {
		problems = append(problems, "must contain a digit")
	}
	if !symbol {
		problems = append(problems, "must contain a symbol")
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string{"password": strings.Join(problems, ", ")}}
}

func (m *IdentityManager) GeneratePasswordResetToken(_ context.Context, u *entity.User) (string, error) {
	return m.JWT.GenerateResetToken(u.ID, u.SecurityStamp)
}

// ResetPassword applies newPassword if token was issued for u and u's password
// has not changed since. The security stamp rotates, so token works once.
func (m *IdentityManager) ResetPassword(ctx context.Context, u *entity.User, token, newPassword string) error {
	if err := m.ValidatePassword(newPassword); err != nil {
		return err
	}
	claims, err := m.JWT.ParseResetToken(token)
	if err != nil || claims.UserID != u.ID {
		return ErrInvalidResetToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = m.Repo.UpdatePassword(ctx, u.ID, claims.Stamp, hash, uuid.NewString())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidResetToken
	}
	return err
}

func (m *IdentityManager) PasswordSignIn(ctx context.Context, username, password string, rememberMe bool) (*SignInResult, error) {
	u, err := m.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		helpers.CompareHashAndPassword(dummyHash, password)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if m.RequireConfirmedEmail && !u.IsVerified {
		return nil, ErrEmailNotVerified
	}
	token, exp, err := m.JWT.GenerateAccessToken(u.ID, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &SignInResult{User: u, AccessToken: token, ExpiresAt: exp, Persistent: rememberMe}, nil
}

func (m *IdentityManager) MarkEmailVerified(ctx context.Context, u *entity.User) error {
	err := m.Repo.SetVerified(ctx, u.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		u.IsVerified = true
	}
	return err
}

var _ CredentialStore = (*IdentityManager)(nil)
