package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devops-thiago/otel-example-go/internal/repository"
)

// MemoryRepository implements UserRepository with an in-memory map.
// Used in tests and local development without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]repository.User
	nextID int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[int64]repository.User),
		nextID: 1,
	}
}

// Create inserts a new user, assigning the next id and timestamps.
func (r *MemoryRepository) Create(ctx context.Context, name, email string, bio *string) (repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return repository.User{}, repository.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	user := repository.User{
		ID:        r.nextID,
		Name:      name,
		Email:     email,
		Bio:       bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[user.ID] = user
	r.nextID++
	return user, nil
}

// GetByID fetches one user by id.
func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return repository.User{}, repository.ErrNotFound
	}
	return user, nil
}

// GetByEmail fetches one user by email.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

// List returns all users ordered by id.
func (r *MemoryRepository) List(ctx context.Context) ([]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]repository.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Update applies the non-nil fields of upd.
func (r *MemoryRepository) Update(ctx context.Context, id int64, upd repository.UserUpdate) (repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return repository.User{}, repository.ErrNotFound
	}

	if upd.Email != nil {
		for _, u := range r.users {
			if u.ID != id && u.Email == *upd.Email {
				return repository.User{}, repository.ErrEmailTaken
			}
		}
		user.Email = *upd.Email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Bio != nil {
		user.Bio = upd.Bio
	}
	user.UpdatedAt = time.Now().UTC()

	r.users[id] = user
	return user, nil
}

// Delete removes a user by id.
func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[id]; !exists {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
