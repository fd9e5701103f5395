package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// DuplicateError is returned by Create when a unique column is already taken.
// Field is "email" or "username".
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return e.Field + " already exists" }

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// UpdatePassword swaps the hash and stamp only if the stored stamp still
	// equals oldStamp; otherwise it returns ErrNotFound.
	UpdatePassword(ctx context.Context, id, oldStamp, hash, newStamp string) error
	SetVerified(ctx context.Context, id string) error
}
