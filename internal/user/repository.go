package user

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for user operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrPhoneExists  = errors.New("phone number already registered")
)

// Repository defines the interface for user account persistence.
type Repository interface {
	// Create stores a new user. Returns ErrPhoneExists when the phone number
	// is already registered.
	Create(u *User) error

	// GetByID retrieves a user by id.
	GetByID(id string) (*User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(phone string) (*User, error)

	// Count returns the number of registered users.
	Count() (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]*User
	phones map[string]string // phone -> user id
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:  make(map[string]*User),
		phones: make(map[string]string),
	}
}

// Create stores a new user.
func (r *InMemoryRepository) Create(u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.phones[u.Phone]; exists {
		return ErrPhoneExists
	}

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	// Deep copy to prevent external mutation
	copied := *u
	r.users[u.ID] = &copied
	r.phones[u.Phone] = u.ID

	return nil
}

// GetByID retrieves a user by id.
func (r *InMemoryRepository) GetByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	copied := *u
	return &copied, nil
}

// GetByPhone retrieves a user by phone number.
func (r *InMemoryRepository) GetByPhone(phone string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.phones[phone]
	if !ok {
		return nil, ErrUserNotFound
	}

	copied := *r.users[id]
	return &copied, nil
}

// Count returns the number of registered users.
func (r *InMemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
