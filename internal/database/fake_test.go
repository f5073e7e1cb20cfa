package database

// In-memory fakes implementing Pool, Conn, Tx, and Rows. They track checkout
// accounting so tests can assert the release and bounded-size invariants.

import (
	"context"
	"sync"
	"time"
)

type fakeRows struct {
	cols    []string
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	iterErr error
}

func (r *fakeRows) Next() bool { return r.idx < len(r.data) }

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	r.idx++
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.iterErr }

type fakeTx struct {
	conn       *fakeConn
	committed  bool
	rolledBack bool
	execErr    error
	queryErr   error
	commitErr  error
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	t.conn.record(sql, args)
	if t.queryErr != nil {
		return nil, t.queryErr
	}
	return t.conn.nextRows(), nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (ExecResult, error) {
	t.conn.record(sql, args)
	if t.execErr != nil {
		return ExecResult{}, t.execErr
	}
	return t.conn.execResult, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeConn struct {
	pool       *fakePool
	rows       *fakeRows
	execResult ExecResult
	queryErr   error
	beginErr   error
	queryDelay time.Duration
	tx         *fakeTx
}

func (c *fakeConn) nextRows() Rows {
	if c.rows != nil {
		return c.rows
	}
	return &fakeRows{cols: []string{}}
}

func (c *fakeConn) record(sql string, args []any) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.statements = append(c.pool.statements, sql)
	c.pool.args = append(c.pool.args, args)
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	c.record(sql, args)
	if c.queryDelay > 0 {
		select {
		case <-time.After(c.queryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.nextRows(), nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (ExecResult, error) {
	c.record(sql, args)
	if c.queryErr != nil {
		return ExecResult{}, c.queryErr
	}
	return c.execResult, nil
}

func (c *fakeConn) Begin(ctx context.Context) (Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	tx := &fakeTx{
		conn:      c,
		execErr:   c.pool.txExecErr,
		queryErr:  c.pool.txQueryErr,
		commitErr: c.pool.txCommitErr,
	}
	c.tx = tx
	c.pool.mu.Lock()
	c.pool.txs = append(c.pool.txs, tx)
	c.pool.mu.Unlock()
	return tx, nil
}

func (c *fakeConn) Release() {
	c.pool.release()
}

type fakePool struct {
	mu sync.Mutex

	max      int32
	sem      chan struct{}
	acquired int32
	peak     int32
	total    int

	statements []string
	args       [][]any
	txs        []*fakeTx

	// behavior knobs applied to every connection handed out
	rows        *fakeRows
	rowsFactory func() *fakeRows
	execResult  ExecResult
	queryErr    error
	beginErr    error
	queryDelay  time.Duration
	txExecErr   error
	txQueryErr  error
	txCommitErr error
}

func newFakePool(maxConns int32) *fakePool {
	return &fakePool{
		max: maxConns,
		sem: make(chan struct{}, maxConns),
	}
}

func (p *fakePool) Acquire(ctx context.Context) (Conn, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	p.acquired++
	p.total++
	if p.acquired > p.peak {
		p.peak = p.acquired
	}
	rows := p.rows
	if p.rowsFactory != nil {
		rows = p.rowsFactory()
	}
	p.mu.Unlock()

	return &fakeConn{
		pool:       p,
		rows:       rows,
		execResult: p.execResult,
		queryErr:   p.queryErr,
		beginErr:   p.beginErr,
		queryDelay: p.queryDelay,
	}, nil
}

func (p *fakePool) release() {
	p.mu.Lock()
	p.acquired--
	p.mu.Unlock()
	<-p.sem
}

func (p *fakePool) Ping(ctx context.Context) error { return nil }

func (p *fakePool) Stat() Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stat{MaxConns: p.max, AcquiredConns: p.acquired, IdleConns: p.max - p.acquired}
}

func (p *fakePool) Close() {}

func (p *fakePool) lastTx() *fakeTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.txs) == 0 {
		return nil
	}
	return p.txs[len(p.txs)-1]
}
