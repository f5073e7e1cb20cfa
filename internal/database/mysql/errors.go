package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/OrgRoute/internal/errs"
)

// MySQL server error numbers relevant to the gateway.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	myErrTooManyConns uint16 = 1040
	myErrAccessDenied uint16 = 1045
	myErrQueryTimeout uint16 = 3024
)

// mapError converts a go-sql-driver error into a unified *errs.Error
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myErrTooManyConns:
			return errs.Wrap(errs.ErrKindPoolExhausted, "too many connections", err)
		case myErrAccessDenied:
			return errs.Wrap(errs.ErrKindConnectionFailed, "database authentication failed", err)
		case myErrQueryTimeout:
			return errs.Wrap(errs.ErrKindTimeout, "query cancelled", err)
		default:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("query error: %s", myErr.Message), err)
		}
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "database connection failed", err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
