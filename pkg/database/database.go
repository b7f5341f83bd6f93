// Package database provides the SQL connection pool capability: a
// PostgreSQL pool when the postgres feature is enabled and a no-op value
// otherwise.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Goden-Gun/balthazar/pkg/config"
)

const (
	connectTimeout     = 5 * time.Second
	healthCheckTimeout = 2 * time.Second
)

// ErrDisabled is returned when a disabled pool is asked for a connection.
var ErrDisabled = errors.New("database: postgres feature disabled")

// Database is the SQL pool capability.
type Database interface {
	// DB returns the pool, or nil when disabled.
	DB() *sql.DB
	HealthCheck(ctx context.Context) error
	Close() error
	Enabled() bool
}

// Postgres wraps a PostgreSQL sql.DB pool.
type Postgres struct {
	db *sql.DB
}

// Open creates the pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.URL.Reveal())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	p, err := New(ctx, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// New wraps an existing pool, applies the pool limits from cfg and pings it.
func New(ctx context.Context, db *sql.DB, cfg config.PostgresConfig) (*Postgres, error) {
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) Enabled() bool { return true }

// HealthCheck pings the pool and runs a trivial query.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	var result int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	return nil
}

// Stats returns pool statistics.
func (p *Postgres) Stats() sql.DBStats { return p.db.Stats() }

func (p *Postgres) Close() error { return p.db.Close() }

// Disabled stands in for the pool when the postgres feature is off.
type Disabled struct{}

func (Disabled) DB() *sql.DB                       { return nil }
func (Disabled) HealthCheck(context.Context) error { return nil }
func (Disabled) Close() error                      { return nil }
func (Disabled) Enabled() bool                     { return false }

// Conn returns the pool of d, or ErrDisabled.
func Conn(d Database) (*sql.DB, error) {
	if d == nil || !d.Enabled() {
		return nil, ErrDisabled
	}
	return d.DB(), nil
}
