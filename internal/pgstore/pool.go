// Package pgstore wraps the Postgres connection pool used for both the
// mirror database and the local sync state, and provides the bulk-COPY
// sink consumed by the bulk loader and the CDC applier.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is a thin wrapper around pgxpool.Pool: services receive a Pool,
// tests can substitute a mock satisfying the narrower interfaces each
// package declares for itself.
type Pool struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Close shuts down the connection pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Ping checks that Postgres is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Raw exposes the underlying pgxpool.Pool for packages that need the
// full pgx surface (transactions, CopyFrom, raw Exec/Query).
func (p *Pool) Raw() *pgxpool.Pool {
	return p.pool
}
