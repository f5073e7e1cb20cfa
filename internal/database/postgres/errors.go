package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/OrgRoute/internal/errs"
)

// PostgreSQL SQLSTATE error codes relevant to the gateway.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection     = "08" // connection exceptions
	pgErrQueryCanceled    = "57014"
	pgErrTooManyConns     = "53300"
	pgErrInvalidPassword  = "28P01"
	pgErrInsufficientPriv = "42501"
)

// mapError converts a pgx error into a unified *errs.Error
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassConnection:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database connection failed", err)
		case pgErr.Code == pgErrQueryCanceled:
			return errs.Wrap(errs.ErrKindTimeout, "query cancelled", err)
		case pgErr.Code == pgErrTooManyConns:
			return errs.Wrap(errs.ErrKindPoolExhausted, "too many connections", err)
		case pgErr.Code == pgErrInvalidPassword, pgErr.Code == pgErrInsufficientPriv:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database authentication failed", err)
		default:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("query error: %s", pgErr.Message), err)
		}
	}

	if pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "database connection failed", err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
