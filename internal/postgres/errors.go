package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"signstore/internal/repository"
)

// SQLSTATE classes used to translate driver errors into the shared
// taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	connectionFailureClass  = "08"
)

func pgErr(err error) (*pgconn.PgError, bool) {
	var e *pgconn.PgError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	e, ok := pgErr(err)
	return ok && e.Code == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	e, ok := pgErr(err)
	return ok && e.Code == codeForeignKeyViolation
}

// wrapError maps a driver error onto the shared taxonomy. Constraint
// violations are handled upstream where the entity context is known;
// everything left is either a connection failure or a database error.
func wrapError(op string, err error) error {
	if e, ok := pgErr(err); ok && strings.HasPrefix(e.Code, connectionFailureClass) {
		return &repository.ConnectionError{Op: op, Err: err}
	}
	return &repository.DatabaseError{Op: op, Err: err}
}
