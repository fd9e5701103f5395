package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
)

// UserRepository is an in-process identity store for development and tests.
// Lookups are exact-match, like the postgres repository.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*entity.User
	byEmail    map[string]string
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*entity.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return &repository.DuplicateError{Field: "email"}
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return &repository.DuplicateError{Field: "username"}
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id)
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byEmail[email])
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byUsername[username])
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, oldStamp, hash, newStamp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.SecurityStamp != oldStamp {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.SecurityStamp = newStamp
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) SetVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// copyOf must be called with the lock held.
func (r *UserRepository) copyOf(id string) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
