// Package migrations embeds the schema for each supported SQL dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// Dialect names a schema directory and the goose dialect that applies it.
type Dialect struct {
	dir   string
	goose string
}

var (
	Postgres = Dialect{dir: "postgres", goose: "postgres"}
	SQLite   = Dialect{dir: "sqlite", goose: "sqlite3"}
)

// Up applies every pending migration for d.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	sub, err := fs.Sub(files, d.dir)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", d.dir, err)
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
