// Package mysql implements database.Pool for MySQL on top of database/sql
// with the go-sql-driver connector.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/errs"
)

const (
	defaultMaxConns       = 10
	defaultMinConns       = 2
	defaultConnectTimeout = 5 * time.Second
	defaultConnLifetime   = 30 * time.Minute
)

// Pool is a MySQL implementation of database.Pool backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Pool struct {
	db *sql.DB
}

// New builds a bounded connection pool for one tenant and validates it with
// a ping before returning.
func New(ctx context.Context, cfg config.TenantConfig) (*Pool, error) {
	myCfg := mysql.NewConfig()
	myCfg.User = cfg.User
	myCfg.Passwd = cfg.Password
	myCfg.Net = "tcp"
	myCfg.Addr = addr(cfg)
	myCfg.DBName = cfg.Database
	myCfg.ParseTime = true
	myCfg.Timeout = defaultConnectTimeout

	connector, err := mysql.NewConnector(myCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid mysql config", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(int(withDefault(cfg.MaxConns, defaultMaxConns)))
	db.SetMaxIdleConns(int(withDefault(cfg.MinConns, defaultMinConns)))
	db.SetConnMaxLifetime(defaultConnLifetime)

	p := &Pool{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return p, nil
}

// --- database.Pool implementation ---

// Acquire checks one connection out of the pool.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Let the executor classify abandoned waits.
			return nil, err
		}
		return nil, mapError(err, "failed to acquire connection")
	}
	return &sqlConn{conn: conn}, nil
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Stat reports the pool's connection accounting.
func (p *Pool) Stat() database.Stat {
	s := p.db.Stats()
	return database.Stat{
		MaxConns:      int32(s.MaxOpenConnections),
		AcquiredConns: int32(s.InUse),
		IdleConns:     int32(s.Idle),
	}
}

// Close drains the connection pool. Call when the application shuts down.
func (p *Pool) Close() {
	_ = p.db.Close()
}

// --- sqlConn wraps a checked-out *sql.Conn ---

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (database.ExecResult, error) {
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return database.ExecResult{}, mapError(err, "exec failed")
	}
	return execResult(res), nil
}

func (c *sqlConn) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err, "begin failed")
	}
	return &sqlTx{tx: tx}, nil
}

// Release returns the connection to the pool.
func (c *sqlConn) Release() {
	_ = c.conn.Close()
}

// --- sqlTx wraps *sql.Tx ---

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (database.ExecResult, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return database.ExecResult{}, mapError(err, "exec failed")
	}
	return execResult(res), nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return mapError(err, "rollback failed")
	}
	return nil
}

// --- sqlRows wraps *sql.Rows ---

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

// execResult reads the affected count and generated key off a sql.Result.
// MySQL supports both; failures here are driver quirks, not query errors.
func execResult(res sql.Result) database.ExecResult {
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return database.ExecResult{RowsAffected: affected, LastInsertID: lastID}
}

func addr(cfg config.TenantConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%d", cfg.Host, port)
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def int32) int32 {
	if val == 0 {
		return def
	}
	return val
}
