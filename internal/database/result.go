package database

import "github.com/koustreak/OrgRoute/internal/errs"

// ResultKind discriminates the two shapes a statement can produce.
type ResultKind int

const (
	// ResultRows is the shape of a SELECT-class statement.
	ResultRows ResultKind = iota

	// ResultMutation is the shape of an INSERT/UPDATE/DELETE-class statement.
	ResultMutation
)

// Result is the uniform shape every executed statement is normalized into.
//
// For ResultRows, Columns and Rows carry the full result set in the order
// the database returned it. For ResultMutation, RowsAffected is always set;
// Rows additionally carries the returned row(s) of a RETURNING clause, and
// LastInsertID the generated key on drivers without RETURNING support.
type Result struct {
	Kind         ResultKind
	Columns      []string
	Rows         []map[string]any
	RowsAffected int64
	LastInsertID int64
}

// ScanRows reads all rows from the result set and returns the column names
// plus one map per row, keyed by column name. Column order and row order are
// preserved exactly as returned by the database.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows — callers do not need to call Close().
func ScanRows(rows Rows) ([]string, []map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return columns, result, nil
}
