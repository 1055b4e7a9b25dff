package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainErr "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
)

// ErrorMapper maps database errors to domain errors.
// Mapped errors wrap the domain sentinel and keep the driver message.
type ErrorMapper struct{}

// NewErrorMapper creates a new ErrorMapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps a database error raised by operation to a domain error
func (m *ErrorMapper) MapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr.ErrNotFound
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation interrupted: %v", domainErr.ErrDatabaseConnection, operation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return m.mapPgError(pgErr, operation)
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint"):
		if strings.Contains(errMsg, "txn_id") {
			return fmt.Errorf("%w: %v", domainErr.ErrDuplicateTransaction, err)
		}
		return fmt.Errorf("%w: %v", domainErr.ErrConstraintViolation, err)

	case strings.Contains(errMsg, "check constraint") ||
		strings.Contains(errMsg, "foreign key constraint"):
		return fmt.Errorf("%w: %v", domainErr.ErrConstraintViolation, err)

	case strings.Contains(errMsg, "timeout"):
		return fmt.Errorf("%w: %s operation timed out: %v", domainErr.ErrDatabaseConnection, operation, err)

	default:
		return fmt.Errorf("%w: %s: %v", domainErr.ErrDatabaseConnection, operation, err)
	}
}

// mapPgError maps by SQLSTATE; integrity violations are the only non-infrastructure class
func (m *ErrorMapper) mapPgError(pgErr *pgconn.PgError, operation string) error {
	switch pgErr.Code {
	case "23505": // unique_violation
		if strings.Contains(pgErr.ConstraintName, "txn_id") {
			return fmt.Errorf("%w: %s", domainErr.ErrDuplicateTransaction, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (%s)", domainErr.ErrConstraintViolation, pgErr.Message, pgErr.ConstraintName)

	case "23502", "23503", "23514": // not_null, foreign_key, check
		return fmt.Errorf("%w: %s (%s)", domainErr.ErrConstraintViolation, pgErr.Message, pgErr.ConstraintName)
	}

	return fmt.Errorf("%w: %s: %s (SQLSTATE %s)", domainErr.ErrDatabaseConnection, operation, pgErr.Message, pgErr.Code)
}
