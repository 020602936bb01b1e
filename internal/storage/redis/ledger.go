// Package redis implements storage.TokenLedger on top of go-redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

const defaultPrefix = "consumed"

var _ storage.TokenLedger = (*Ledger)(nil)

// Ledger records consumed token ids as expiring keys.
type Ledger struct {
	client goredis.UniversalClient
	prefix string
}

// NewLedger wraps an existing client. An empty prefix falls back to "consumed".
func NewLedger(client goredis.UniversalClient, prefix string) *Ledger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Ledger{client: client, prefix: prefix}
}

// Connect parses a redis:// URL, pings the server and returns a ledger that
// owns the client.
func Connect(ctx context.Context, url string) (*Ledger, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewLedger(client, ""), nil
}

// Consume sets the key only if absent, so concurrent consumers race on SETNX.
func (l *Ledger) Consume(ctx context.Context, id string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := l.client.SetNX(ctx, l.key(id), 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("record consumed token: %w", err)
	}
	if !ok {
		return storage.ErrTokenConsumed
	}
	return nil
}

// Close releases the underlying client.
func (l *Ledger) Close() error {
	return l.client.Close()
}

func (l *Ledger) key(id string) string {
	return l.prefix + ":" + id
}
