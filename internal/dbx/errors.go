package dbx

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// SQLSTATE codes the repositories care about.
const (
	uniqueViolation      = "23505"
	checkViolation       = "23514"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err carries a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsCheckViolation reports whether err carries a Postgres check_violation.
func IsCheckViolation(err error) bool {
	return hasCode(err, checkViolation)
}

// IsRetryable reports whether the transaction that produced err can simply
// be run again.
func IsRetryable(err error) bool {
	return hasCode(err, serializationFailure) || hasCode(err, deadlockDetected)
}

// ConstraintName returns the violated constraint name, or "" if err is not a
// Postgres error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// TextArray returns a scanner that decodes a Postgres TEXT[] column into dst.
// NULL decodes as an empty slice.
func TextArray(dst *[]string) sql.Scanner {
	return &textArray{dst: dst}
}

type textArray struct {
	dst *[]string
}

func (a *textArray) Scan(src any) error {
	if src == nil {
		*a.dst = []string{}
		return nil
	}
	var out []string
	if err := pgtype.NewMap().SQLScanner(&out).Scan(src); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*a.dst = out
	return nil
}
