package database

import (
	"regexp"
	"strings"
)

// StatementClass splits statements into the two execution paths the
// Executor knows: fetch-all-rows vs run-in-transaction-and-commit.
// The executor is otherwise agnostic to statement shape.
type StatementClass int

const (
	// StatementRead fetches and returns rows without a transaction.
	StatementRead StatementClass = iota

	// StatementMutation runs inside a transaction and reports the
	// affected row count.
	StatementMutation
)

// readKeywords are the leading keywords of SELECT-class statements.
var readKeywords = map[string]bool{
	"select":  true,
	"with":    true,
	"show":    true,
	"explain": true,
	"values":  true,
	"table":   true,
}

var (
	lineComment  = regexp.MustCompile(`(?m)--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	returningRe  = regexp.MustCompile(`(?i)\breturning\b`)
)

// Classify reports whether sql is a read or a mutation, looking only at the
// first keyword after any leading comments. Everything that is not
// recognisably a read runs through the mutation path, so unknown statement
// shapes still get commit/rollback handling.
func Classify(sql string) StatementClass {
	if readKeywords[firstKeyword(sql)] {
		return StatementRead
	}
	return StatementMutation
}

// HasReturning reports whether sql contains a RETURNING clause, which makes
// a mutation produce rows that must be fetched before commit.
func HasReturning(sql string) bool {
	return returningRe.MatchString(stripComments(sql))
}

func firstKeyword(sql string) string {
	trimmed := strings.TrimSpace(stripComments(sql))
	if trimmed == "" {
		return ""
	}
	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if end == -1 {
		end = len(trimmed)
	}
	return strings.ToLower(trimmed[:end])
}

func stripComments(sql string) string {
	sql = blockComment.ReplaceAllString(sql, " ")
	return lineComment.ReplaceAllString(sql, " ")
}
