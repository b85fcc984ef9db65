package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Database drivers registered for the SQL-backed stores.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wardenhq/warden/pkg/authz"
)

// Config selects and configures the storage backend.
type Config struct {
	Type string // "memory", "postgres", "sqlite"

	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresTimeout  time.Duration

	// SQLite config
	SQLitePath string
}

// DefaultConfig returns a memory-backed configuration.
func DefaultConfig() Config {
	return Config{
		Type:             "memory",
		PostgresMaxConns: 10,
		PostgresTimeout:  5 * time.Second,
		SQLitePath:       "warden.db",
	}
}

// Open builds the configured store. The returned close function releases the
// backing database handle; it is a no-op for the memory backend.
func Open(ctx context.Context, cfg Config) (authz.Store, func() error, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil

	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, nil, fmt.Errorf("postgres storage requires a connection URL")
		}
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.PostgresMaxConns)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.PostgresTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s := NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil

	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// SQLite handles one writer at a time; a larger pool only produces
		// SQLITE_BUSY errors under concurrent mutation.
		db.SetMaxOpenConns(1)
		s := NewSQLiteStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}
