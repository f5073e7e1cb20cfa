package server

// Scripted database.Pool fakes so handler tests can drive the full stack:
// router, tenant middleware, bridge, and executor, without a live database.

import (
	"context"
	"io"
	"sync"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/logger"
	"github.com/koustreak/OrgRoute/internal/tenant"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "json", Output: io.Discard})
}

type scriptedRows struct {
	cols   []string
	data   [][]any
	idx    int
	closed bool
}

func (r *scriptedRows) Next() bool { return r.idx < len(r.data) }

func (r *scriptedRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	r.idx++
	return nil
}

func (r *scriptedRows) Columns() ([]string, error) { return r.cols, nil }
func (r *scriptedRows) Close()                     { r.closed = true }
func (r *scriptedRows) Err() error                 { return nil }

// scriptedPool serves the next scripted outcome to each statement.
type scriptedPool struct {
	mu sync.Mutex

	acquires   int
	released   int
	statements []string
	args       [][]any

	// next outcome; err wins over data
	cols       []string
	data       [][]any
	execResult database.ExecResult
	err        error
}

func (p *scriptedPool) script(cols []string, data [][]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.data, p.err = cols, data, nil
}

func (p *scriptedPool) scriptExec(res database.ExecResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execResult, p.err = res, nil
}

func (p *scriptedPool) scriptError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *scriptedPool) record(sql string, args []any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statements = append(p.statements, sql)
	p.args = append(p.args, args)
	return p.err
}

func (p *scriptedPool) rows() database.Rows {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &scriptedRows{cols: p.cols, data: p.data}
}

func (p *scriptedPool) Acquire(ctx context.Context) (database.Conn, error) {
	p.mu.Lock()
	p.acquires++
	p.mu.Unlock()
	return &scriptedConn{pool: p}, nil
}

func (p *scriptedPool) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *scriptedPool) Stat() database.Stat { return database.Stat{} }
func (p *scriptedPool) Close()              {}

func (p *scriptedPool) balanced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires == p.released
}

type scriptedConn struct {
	pool *scriptedPool
}

func (c *scriptedConn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	if err := c.pool.record(sql, args); err != nil {
		return nil, err
	}
	return c.pool.rows(), nil
}

func (c *scriptedConn) Exec(ctx context.Context, sql string, args ...any) (database.ExecResult, error) {
	if err := c.pool.record(sql, args); err != nil {
		return database.ExecResult{}, err
	}
	return c.pool.execResult, nil
}

func (c *scriptedConn) Begin(ctx context.Context) (database.Tx, error) {
	return &scriptedTx{conn: c}, nil
}

func (c *scriptedConn) Release() {
	c.pool.mu.Lock()
	c.pool.released++
	c.pool.mu.Unlock()
}

type scriptedTx struct {
	conn *scriptedConn
}

func (t *scriptedTx) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	return t.conn.Query(ctx, sql, args...)
}

func (t *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (database.ExecResult, error) {
	return t.conn.Exec(ctx, sql, args...)
}

func (t *scriptedTx) Commit(ctx context.Context) error   { return nil }
func (t *scriptedTx) Rollback(ctx context.Context) error { return nil }

// poolBuilder returns tenant pools from a fixed map, with a chosen dialect
// per tenant.
func poolBuilder(pools map[string]*scriptedPool, dialects map[string]database.Dialect) tenant.PoolBuilder {
	return func(ctx context.Context, cfg config.TenantConfig) (database.Pool, database.Dialect, error) {
		d, ok := dialects[cfg.ID]
		if !ok {
			d = database.DialectPostgres
		}
		return pools[cfg.ID], d, nil
	}
}
