package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Mode selects how the store holds its database connections.
type Mode string

const (
	// ModePool shares a pgxpool across in-flight requests.
	ModePool Mode = "pool"
	// ModeSingle keeps one persistent connection and serializes every query on it.
	ModeSingle Mode = "single"
)

// conn is the subset of database access the store performs. The row is
// scanned inside queryRow so a single connection can be released right after.
type conn interface {
	exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRow(ctx context.Context, sql string, args []any, dest ...any) error
	close(ctx context.Context) error
}

type poolConn struct {
	pool *pgxpool.Pool
}

func (c *poolConn) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, sql, args...)
}

func (c *poolConn) queryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	return c.pool.QueryRow(ctx, sql, args...).Scan(dest...)
}

func (c *poolConn) close(context.Context) error {
	c.pool.Close()
	return nil
}

// singleConn guards a *pgx.Conn, which is not safe for concurrent use.
type singleConn struct {
	mu   sync.Mutex
	conn *pgx.Conn
}

func (c *singleConn) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Exec(ctx, sql, args...)
}

func (c *singleConn) queryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.QueryRow(ctx, sql, args...).Scan(dest...)
}

func (c *singleConn) close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close(ctx)
}
