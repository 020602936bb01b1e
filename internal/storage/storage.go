package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/auth-recovery-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrTokenConsumed indicates a single-use token id was already recorded.
var ErrTokenConsumed = errors.New("token already consumed")

// UserStore captures persistence operations needed by handlers.
// Implementations must be safe for concurrent use.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByEmailAndQuestion(ctx context.Context, email, question string) (models.User, error)
	UpdatePasswordByID(ctx context.Context, id int64, passwordHash string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	Close() error
}

// TokenLedger records token ids that may only be used once.
type TokenLedger interface {
	// Consume marks id as used for ttl. It returns ErrTokenConsumed when id
	// was already marked and the mark has not expired.
	Consume(ctx context.Context, id string, ttl time.Duration) error
}
