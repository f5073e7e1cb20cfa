// Package database defines the driver-neutral contracts for tenant database
// access: the pool/connection interfaces every driver implements, the uniform
// query Result shape, and the Executor that runs one statement against a
// borrowed connection.
//
// Layers above this package talk only to these interfaces — they never
// import the postgres or mysql packages directly.
package database

import "context"

// Dialect controls which SQL placeholder style statements use.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders.
	DialectMySQL
)

func (d Dialect) String() string {
	if d == DialectMySQL {
		return "mysql"
	}
	return "postgres"
}

// Pool is a bounded set of live connections to one tenant database.
// Implementations are safe for concurrent use by multiple goroutines.
type Pool interface {
	// Acquire checks one connection out of the pool, blocking until a
	// connection is free or ctx expires. Every acquired connection must
	// be returned with Conn.Release.
	Acquire(ctx context.Context) (Conn, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Stat reports the pool's current accounting.
	Stat() Stat

	// Close drains the pool. Call at process shutdown.
	Close()
}

// Conn is a single checked-out connection. It is held by at most one
// in-flight query at a time and must always be released, on every outcome.
type Conn interface {
	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) (ExecResult, error)

	// Begin starts a transaction on this connection.
	Begin(ctx context.Context) (Tx, error)

	// Release returns the connection to its pool.
	Release()
}

// Tx is a transaction on a single connection.
type Tx interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (ExecResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set, in query order.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// ExecResult reports the outcome of a row-less statement.
type ExecResult struct {
	RowsAffected int64

	// LastInsertID is the auto-generated key of an INSERT, when the
	// driver supports it (MySQL). Zero on Postgres, which reports
	// generated keys through RETURNING instead.
	LastInsertID int64
}

// Stat is a snapshot of a pool's connection accounting.
type Stat struct {
	MaxConns      int32
	AcquiredConns int32
	IdleConns     int32
}
