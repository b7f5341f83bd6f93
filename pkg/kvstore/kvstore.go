// Package kvstore provides the key-value store capability backed by Redis.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Goden-Gun/balthazar/pkg/config"
)

const healthCheckTimeout = 2 * time.Second

// ErrDisabled is returned when a disabled store is asked for a client.
var ErrDisabled = errors.New("kvstore: redis feature disabled")

// Store is the key-value pool capability.
type Store interface {
	// Client returns the pooled client, or nil when disabled.
	Client() redis.UniversalClient
	HealthCheck(ctx context.Context) error
	Close() error
	Enabled() bool
}

// Redis is a pooled go-redis client.
type Redis struct {
	client redis.UniversalClient
}

// Options translates the connection URL into go-redis options.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL.Reveal())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Open connects and pings the server.
func Open(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	r, err := New(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an existing client and verifies it with PING.
func New(ctx context.Context, client redis.UniversalClient) (*Redis, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Client() redis.UniversalClient { return r.client }

func (r *Redis) Enabled() bool { return true }

func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

// Disabled stands in for the store when the redis feature is off.
type Disabled struct{}

func (Disabled) Client() redis.UniversalClient     { return nil }
func (Disabled) HealthCheck(context.Context) error { return nil }
func (Disabled) Close() error                      { return nil }
func (Disabled) Enabled() bool                     { return false }

// Client returns the client of s, or ErrDisabled.
func Client(s Store) (redis.UniversalClient, error) {
	if s == nil || !s.Enabled() {
		return nil, ErrDisabled
	}
	return s.Client(), nil
}
