package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var ErrBadQuery = errors.New("bad query")

const (
	UniqueViolation      = "23505"
	SerializationFailure = "40001"
	DeadlockDetected     = "40P01"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgError returns the server-reported error in err's chain, if any.
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsServerUnavailable reports SQLSTATE classes that describe the server or
// connection rather than the statement: 08 connection, 53 resources,
// 57 operator intervention, 58 system error.
func IsServerUnavailable(pgErr *pgconn.PgError) bool {
	if len(pgErr.Code) < 2 {
		return false
	}
	switch pgErr.Code[:2] {
	case "08", "53", "57", "58":
		return true
	}
	return false
}

// IsTransactionConflict reports serialization failures and deadlocks. The
// transaction did nothing wrong and can be re-run as is.
func IsTransactionConflict(pgErr *pgconn.PgError) bool {
	switch pgErr.Code {
	case SerializationFailure, DeadlockDetected:
		return true
	}
	return false
}
