package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is provided only that constraint matches. sqlite reports the
// violated column list ("table.column") instead of the constraint name, so
// callers pass those columns, in index order, to match there as well.
func IsUniqueViolation(err error, constraintName string, columns ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName == "" {
		return errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, sqliteUniqueFailed)
	}
	if strings.Contains(msg, constraintName) {
		return true
	}
	if len(columns) == 0 {
		return false
	}
	failed, ok := sqliteFailedColumns(msg)
	return ok && failed == strings.Join(columns, ", ")
}

const sqliteUniqueFailed = "UNIQUE constraint failed: "

func sqliteFailedColumns(msg string) (string, bool) {
	_, rest, ok := strings.Cut(msg, sqliteUniqueFailed)
	if !ok {
		return "", false
	}
	// some drivers append the extended result code, e.g. " (2067)"
	if i := strings.Index(rest, " ("); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest), true
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
