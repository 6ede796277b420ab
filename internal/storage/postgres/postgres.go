// Package postgres stores the plan journal in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/homestead/internal/config"
)

// ApplicationName tags every journal connection in pg_stat_activity.
const ApplicationName = "homestead-journal"

// Pool is the journal's connection pool and the event repository on top of it.
type Pool struct {
	pool   *pgxpool.Pool
	events *EventRepository
}

// NewPool connects to the journal database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. Events is ready
// for use once the plan_events migration has been applied.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing journal database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating journal pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging journal database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Pool{pool: pool, events: NewEventRepository(pool)}, nil
}

// Events returns the plan event repository backed by this pool.
func (p *Pool) Events() *EventRepository { return p.events }

// Health pings the database within timeout. serve polls it to drive the
// overall health status.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources; Events is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
