package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/basel-ax/gallery/internal/domain"
)

// classify wraps a driver error with the matching domain sentinel so callers can use errors.Is
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind := kindOf(err); kind != nil {
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func kindOf(err error) error {
	var (
		pqErr     *pq.Error
		sqliteErr *sqlite.Error
		netErr    net.Error
	)
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrStorageUnavailable
	case errors.As(err, &pqErr):
		return postgresKind(pqErr)
	case errors.As(err, &sqliteErr):
		return sqliteKind(sqliteErr.Code())
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.As(err, &netErr):
		return domain.ErrStorageUnavailable
	}
	return nil
}

func postgresKind(err *pq.Error) error {
	switch err.Code {
	case "42501":
		return domain.ErrPermissionDenied
	case "23505":
		return domain.ErrDuplicateID
	case "57P01", "57P02", "57P03":
		return domain.ErrStorageUnavailable
	}
	switch err.Code.Class() {
	case "08", "53":
		return domain.ErrStorageUnavailable
	case "28":
		return domain.ErrPermissionDenied
	}
	return nil
}

func sqliteKind(code int) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return domain.ErrDuplicateID
	}
	// primary result code lives in the low byte of extended codes
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
		return domain.ErrStorageUnavailable
	case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
		return domain.ErrPermissionDenied
	case sqlite3.SQLITE_CONSTRAINT:
		// the only constraint on image_history is its primary key
		return domain.ErrDuplicateID
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("image %q: %w", id, domain.ErrRecordNotFound)
}
