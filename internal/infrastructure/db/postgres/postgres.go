// Package postgres implements the credential and business-unit stores on
// PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultConnectTries = 5
	connectBackoff      = 500 * time.Millisecond
)

// DBTX is the subset of *pgxpool.Pool the repositories use. pgxmock's pool
// satisfies it in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Config captures the settings for establishing a PostgreSQL pool.
type Config struct {
	URL string
	// Timeout bounds each connect+ping attempt.
	Timeout time.Duration
	// Attempts is the number of connection attempts before giving up.
	Attempts uint64
}

// Connect creates a pgx pool and validates connectivity with a ping. Failed
// attempts are retried with exponential backoff; this only happens at startup.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = defaultConnectTries
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres parse config: %w", err)
	}

	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		p, err := pgxpool.NewWithConfig(attemptCtx, poolCfg)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("postgres connect: %w", err))
		}
		if err := p.Ping(attemptCtx); err != nil {
			p.Close()
			return retry.RetryableError(fmt.Errorf("postgres ping: %w", err))
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
