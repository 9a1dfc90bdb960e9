package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores user accounts.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// InMemoryRepository keeps users in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string
}

// NewInMemoryRepository creates an empty in-memory user store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create stores the user, assigning an id and creation time.
func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, ErrEmailTaken
	}

	stored := *user
	stored.ID = uuid.New().String()
	stored.Email = email
	stored.CreatedAt = time.Now().UTC()

	r.users[stored.ID] = &stored
	r.byEmail[email] = stored.ID

	out := stored
	return &out, nil
}

// GetByID returns a copy of the user.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// GetByEmail looks a user up by (case-insensitive) email.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *r.users[id]
	return &out, nil
}
