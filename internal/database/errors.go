package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeInsufficientPrivilege = "42501"
	codeUniqueViolation       = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPermissionDenied reports a write rejected by database privileges, which
// is how a read-only deployment surfaces.
func IsPermissionDenied(err error) bool {
	return pgCode(err) == codeInsufficientPrivilege
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == codeUniqueViolation
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
