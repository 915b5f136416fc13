package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/vidtube-accounts/database"
)

// Options tune the connection pool. Zero values keep the pgx defaults.
type Options struct {
	MaxConns        int32
	MaxConnIdleTime time.Duration
	// ConnectTimeout bounds the initial reachability check.
	ConnectTimeout time.Duration
}

// Connection is a migrated pgx connection pool.
type Connection struct {
	*pgxpool.Pool
}

// NewConnection applies pending migrations, opens a pool for dsn and checks
// that the database answers.
func NewConnection(ctx context.Context, dsn string, opts Options) (*Connection, error) {
	conf, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	conn := &Connection{Pool: pool}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	return conn, nil
}

func poolConfig(dsn string, opts Options) (*pgxpool.Config, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		conf.MaxConns = opts.MaxConns
	}
	if opts.MaxConnIdleTime > 0 {
		conf.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	return conf, nil
}

func (s *Connection) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

// Ping backs the /healthz endpoint.
func (s *Connection) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return errors.New("connection pool is nil")
	}
	return s.Pool.Ping(ctx)
}
