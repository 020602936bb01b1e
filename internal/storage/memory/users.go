// Package memory holds in-process implementations of the storage interfaces,
// used by tests and by DATABASE_DRIVER=memory for local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

var _ storage.UserStore = (*UserStore)(nil)

// UserStore keeps users in a map guarded by a mutex.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]models.User
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{nextID: 1, users: make(map[int64]models.User)}
}

// CreateUser inserts a user, enforcing unique username and email.
func (s *UserStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	s.nextID++
	s.users[user.ID] = user
	return user, nil
}

// FindByUsername fetches a user by username.
func (s *UserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

// FindByEmail fetches a user by email address.
func (s *UserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

// FindByEmailAndQuestion fetches a user registered with both email and question.
func (s *UserStore) FindByEmailAndQuestion(_ context.Context, email, question string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email && u.SecretQuestion == question })
}

// UpdatePasswordByID replaces the password hash of the user with id.
func (s *UserStore) UpdatePasswordByID(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

// UpdatePasswordByEmail replaces the password hash of the user owning email.
func (s *UserStore) UpdatePasswordByEmail(_ context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, user := range s.users {
		if user.Email == email {
			user.PasswordHash = passwordHash
			s.users[id] = user
			return nil
		}
	}
	return storage.ErrNotFound
}

// Count reports how many users are stored.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Close is a no-op.
func (s *UserStore) Close() error { return nil }

func (s *UserStore) find(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}
