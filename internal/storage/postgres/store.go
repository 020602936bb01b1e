package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for goose

	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
	"github.com/hongminglow/auth-recovery-be/internal/storage/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const userColumns = `id, first_name, last_name, mother_last_name, username, email, password_hash, phone, secret_question, secret_answer, created_at`

// Options tune how the store connects.
type Options struct {
	Mode     Mode
	MaxConns int32
}

// Store provides Postgres-backed persistence for users.
type Store struct {
	db conn
}

// NewUserStore runs migrations, then connects using the requested mode.
func NewUserStore(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	switch opts.Mode {
	case "":
		opts.Mode = ModePool
	case ModePool, ModeSingle:
	default:
		return nil, fmt.Errorf("unknown connection mode %q", opts.Mode)
	}

	if err := migrate(ctx, databaseURL); err != nil {
		return nil, err
	}
	if opts.Mode == ModeSingle {
		return newSingle(ctx, databaseURL)
	}
	return newPooled(ctx, databaseURL, opts.MaxConns)
}

func newPooled(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: &poolConn{pool: pool}}, nil
}

func newSingle(ctx context.Context, databaseURL string) (*Store, error) {
	c, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Store{db: &singleConn{conn: c}}, nil
}

// migrate opens a short-lived database/sql handle because goose needs one.
func migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration handle: %w", err)
	}
	defer db.Close()
	return migrations.Up(ctx, db, migrations.Postgres)
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.close(context.Background()); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (first_name, last_name, mother_last_name, username, email, password_hash, phone, secret_question, secret_answer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns
	created, err := s.scanUser(ctx, query,
		user.FirstName, user.LastName, user.MotherLastName, user.Username, user.Email,
		user.PasswordHash, user.Phone, user.SecretQuestion, user.SecretAnswer)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByEmailAndQuestion fetches a user matching both email and secret question.
func (s *Store) FindByEmailAndQuestion(ctx context.Context, email, question string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND secret_question = $2`, email, question)
}

// UpdatePasswordByID replaces the password hash of the user with id.
func (s *Store) UpdatePasswordByID(ctx context.Context, id int64, passwordHash string) error {
	return s.update(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
}

// UpdatePasswordByEmail replaces the password hash of the user owning email.
func (s *Store) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	return s.update(ctx, `UPDATE users SET password_hash = $1 WHERE email = $2`, passwordHash, email)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	user, err := s.scanUser(ctx, query, args...)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, err
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(ctx context.Context, query string, args ...any) (models.User, error) {
	var user models.User
	err := s.db.queryRow(ctx, query, args,
		&user.ID, &user.FirstName, &user.LastName, &user.MotherLastName, &user.Username,
		&user.Email, &user.PasswordHash, &user.Phone, &user.SecretQuestion, &user.SecretAnswer, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
