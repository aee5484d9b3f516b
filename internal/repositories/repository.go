// Package repositories provides database/sql data access for users and notes
package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEntry is returned when the store rejects a write on a unique index.
// The case-insensitive unique indexes on users.username and notes.title are the
// authoritative uniqueness guard; service-level pre-checks are only a fast path.
var ErrDuplicateEntry = errors.New("duplicate entry")

// isDuplicateEntry reports whether err is a MySQL duplicate key error (1062)
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
