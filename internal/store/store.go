// Package store owns the warehouse connection pool, schema migration, and
// access to the raw and extracted tiers. Writes across tiers are not atomic
// as a group; the backfill reconciler repairs gaps between them.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-warehouse/internal/db"
)

// Store provides access to the raw and extracted tiers.
type Store struct {
	pool    db.Pool
	closeFn func()
}

// New wraps an existing pool. Used by tests and by subsystems sharing one pool.
func New(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// NewPostgres creates a Store with its own connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*Store, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse config")
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	if minConns <= 0 {
		minConns = 2
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping")
	}
	return &Store{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying pool for subsystems that own their queries
// (crosswalk, canonical, backfill, jobs).
func (s *Store) Pool() db.Pool {
	return s.pool
}

// Close releases the connection pool if this Store owns it.
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}
