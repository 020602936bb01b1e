// Package sqlite provides a modernc.org/sqlite-backed storage.UserStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
	"github.com/hongminglow/auth-recovery-be/internal/storage/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const userColumns = `id, first_name, last_name, mother_last_name, username, email, password_hash, phone, secret_question, secret_answer, created_at`

// Store provides SQLite-backed persistence for users.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, applies migrations and returns a ready store.
// SQLite serializes writers, so the pool is held to one connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := migrations.Up(ctx, db, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases database resources.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (first_name, last_name, mother_last_name, username, email, password_hash, phone, secret_question, secret_answer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.MotherLastName, user.Username, user.Email,
		user.PasswordHash, user.Phone, user.SecretQuestion, user.SecretAnswer)
	created, err := scanUser(row)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// FindByEmailAndQuestion fetches a user matching both email and secret question.
func (s *Store) FindByEmailAndQuestion(ctx context.Context, email, question string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? AND secret_question = ?`, email, question)
}

// UpdatePasswordByID replaces the password hash of the user with id.
func (s *Store) UpdatePasswordByID(ctx context.Context, id int64, passwordHash string) error {
	return s.update(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// UpdatePasswordByEmail replaces the password hash of the user owning email.
func (s *Store) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	return s.update(ctx, `UPDATE users SET password_hash = ? WHERE email = ?`, passwordHash, email)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, err
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.MotherLastName, &user.Username,
		&user.Email, &user.PasswordHash, &user.Phone, &user.SecretQuestion, &user.SecretAnswer, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return user, nil
}
