package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// store runs unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgreSQL error codes surfaced by the reservation schema.
const (
	CodeUniqueViolation    = "23505"
	CodeExclusionViolation = "23P01"
	CodeSerializationFail  = "40001"
	CodeDeadlockDetected   = "40P01"
)

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// IsExclusionViolation reports whether the reservations no-overlap
// constraint rejected a write.
func IsExclusionViolation(err error) bool {
	return IsCode(err, CodeExclusionViolation)
}

func IsUniqueViolation(err error) bool {
	return IsCode(err, CodeUniqueViolation)
}

func IsRetryable(err error) bool {
	return IsCode(err, CodeSerializationFail) || IsCode(err, CodeDeadlockDetected)
}
