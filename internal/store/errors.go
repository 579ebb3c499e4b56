package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrInvalidRecord   = errors.New("invalid record")
)

// NotFoundError is returned when an operation targets an identifier that
// does not exist, it matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Table string
	ID    int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("record for %s with id %d not found", e.Table, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// libsql reports errors from the remote server as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapWrite maps driver errors of a write onto the store's error taxonomy.
func wrapWrite(op, table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w: %s", op, table, ErrUniqueViolation, err.Error())
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
