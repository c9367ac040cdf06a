package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows is returned by QueryRow when the statement matched nothing.
var ErrNoRows = errors.New("no rows in result set")

const uniqueViolation = "23505"

// ConnectionError reports that storage could not be reached.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("database unavailable: %v", e.Err)
	}
	return fmt.Sprintf("database unreachable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError wraps a driver failure raised after a connection was obtained.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s statement failed: %v", e.Statement, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err carries a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
