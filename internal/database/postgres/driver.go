// Package postgres implements database.Pool for PostgreSQL on top of pgxpool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/errs"
)

const (
	defaultMaxConns       = 10
	defaultMinConns       = 2
	defaultConnectTimeout = 5 * time.Second
)

// Pool is a PostgreSQL implementation of database.Pool backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
type Pool struct {
	pool *pgxpool.Pool
}

// New builds a bounded connection pool for one tenant and validates it with
// a ping before returning.
func New(ctx context.Context, cfg config.TenantConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid postgres config", err)
	}

	poolCfg.MaxConns = withDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = withDefault(cfg.MinConns, defaultMinConns)
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	p := &Pool{pool: pool}

	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// --- database.Pool implementation ---

// Acquire checks one connection out of the pool.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Let the executor classify abandoned waits.
			return nil, err
		}
		return nil, mapError(err, "failed to acquire connection")
	}
	return &pgxConn{conn: conn}, nil
}

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Stat reports the pool's connection accounting.
func (p *Pool) Stat() database.Stat {
	s := p.pool.Stat()
	return database.Stat{
		MaxConns:      s.MaxConns(),
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
	}
}

// Close drains the connection pool. Call when the application shuts down.
func (p *Pool) Close() {
	p.pool.Close()
}

// --- pgxConn wraps a checked-out *pgxpool.Conn ---

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (database.ExecResult, error) {
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return database.ExecResult{}, mapError(err, "exec failed")
	}
	return database.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

func (c *pgxConn) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, mapError(err, "begin failed")
	}
	return &pgxTx{tx: tx}, nil
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

// --- pgxTx wraps pgx.Tx ---

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (database.ExecResult, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return database.ExecResult{}, mapError(err, "exec failed")
	}
	return database.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return mapError(err, "rollback failed")
	}
	return nil
}

// --- pgxRows wraps pgx.Rows ---

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols, nil
}

// buildDSN constructs the postgres connection string
func buildDSN(cfg config.TenantConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Database, sslMode,
	)
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def int32) int32 {
	if val == 0 {
		return def
	}
	return val
}
