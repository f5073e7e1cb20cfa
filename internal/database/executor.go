package database

import (
	"context"
	"errors"
	"time"

	"github.com/koustreak/OrgRoute/internal/errs"
)

// Executor runs a single parameterized statement against a borrowed
// connection and normalizes the outcome into a Result.
//
// The central invariant: a connection checked out for a statement is
// released back to its pool on every exit path — success, query error,
// or cancellation. Mutations run inside a transaction that is rolled back
// before release whenever anything fails.
type Executor struct {
	// AcquireTimeout bounds the wait for a free pool connection. Zero
	// blocks until the request context expires.
	AcquireTimeout time.Duration

	// QueryTimeout is the per-statement execution deadline. Zero applies
	// no deadline beyond the request context.
	QueryTimeout time.Duration
}

// NewExecutor returns an Executor with the given resource deadlines.
func NewExecutor(acquireTimeout, queryTimeout time.Duration) *Executor {
	return &Executor{
		AcquireTimeout: acquireTimeout,
		QueryTimeout:   queryTimeout,
	}
}

// Execute runs sql with the given bind parameters on a connection checked
// out from pool. Parameters are always bound, never interpolated. An empty
// args slice is valid.
//
// SELECT-class statements have all rows fetched in database order.
// Mutations are committed and report the affected row count; a RETURNING
// clause additionally yields the returned row(s).
func (e *Executor) Execute(ctx context.Context, pool Pool, sql string, args []any) (*Result, error) {
	conn, err := e.acquire(ctx, pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	queryCtx := ctx
	if e.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, e.QueryTimeout)
		defer cancel()
	}

	if Classify(sql) == StatementRead {
		return e.executeRead(queryCtx, conn, sql, args)
	}
	return e.executeMutation(queryCtx, conn, sql, args)
}

// acquire checks one connection out of pool within AcquireTimeout.
// A wait that exhausts the acquire deadline while the caller is still
// interested is PoolExhausted; a wait abandoned by the caller is Timeout.
func (e *Executor) acquire(ctx context.Context, pool Pool) (Conn, error) {
	acquireCtx := ctx
	if e.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.AcquireTimeout)
		defer cancel()
	}

	conn, err := pool.Acquire(acquireCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrKindTimeout, "request cancelled while waiting for a connection", err)
		}
		if acquireCtx.Err() != nil {
			return nil, errs.Wrap(errs.ErrKindPoolExhausted, "no connection available within the acquire deadline", err)
		}
		return nil, queryError(ctx, err)
	}
	return conn, nil
}

func (e *Executor) executeRead(ctx context.Context, conn Conn, sql string, args []any) (*Result, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryError(ctx, err)
	}

	columns, records, err := ScanRows(rows)
	if err != nil {
		return nil, queryError(ctx, err)
	}

	return &Result{
		Kind:    ResultRows,
		Columns: columns,
		Rows:    records,
	}, nil
}

func (e *Executor) executeMutation(ctx context.Context, conn Conn, sql string, args []any) (*Result, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, queryError(ctx, err)
	}

	result := &Result{Kind: ResultMutation}

	if HasReturning(sql) {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			rollback(ctx, tx)
			return nil, queryError(ctx, err)
		}
		columns, records, err := ScanRows(rows)
		if err != nil {
			rollback(ctx, tx)
			return nil, queryError(ctx, err)
		}
		result.Columns = columns
		result.Rows = records
		result.RowsAffected = int64(len(records))
	} else {
		execResult, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			rollback(ctx, tx)
			return nil, queryError(ctx, err)
		}
		result.RowsAffected = execResult.RowsAffected
		result.LastInsertID = execResult.LastInsertID
	}

	if err := tx.Commit(ctx); err != nil {
		rollback(ctx, tx)
		return nil, queryError(ctx, err)
	}
	return result, nil
}

// rollback abandons the open transaction so the connection goes back to the
// pool clean. It runs detached from ctx: the rollback must happen even when
// the statement failed because the context expired.
func rollback(ctx context.Context, tx Tx) {
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

// queryError normalizes an execution error. Driver errors arrive already
// wrapped; anything else becomes Timeout on an expired context or
// QueryFailed carrying the underlying database message.
func queryError(ctx context.Context, err error) error {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "query deadline exceeded", err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, err.Error(), err)
}
