package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrTenantConflict = errors.New("tenant conflict")

	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("user conflict")

	ErrSuperadminNotFound = errors.New("superadmin not found")
	ErrSuperadminConflict = errors.New("superadmin conflict")

	ErrProductNotFound = errors.New("product not found")
	ErrProductConflict = errors.New("product conflict")

	ErrOrderNotFound = errors.New("order not found")
	// ErrInsufficientStock is returned when an order line asks for more units than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	errNoFieldsToUpdate = errors.New("no fields to update")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsNoFieldsToUpdate reports whether an update call carried no changes.
func IsNoFieldsToUpdate(err error) bool {
	return errors.Is(err, errNoFieldsToUpdate)
}
