package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"foodchain/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgRaiseException      = "P0001"
)

// ConflictMapper turns a unique violation on constraint into a domain error.
// Returning nil falls back to DUPLICATE_REFERENCE.
type ConflictMapper func(constraint string) error

// TranslateError maps driver errors to AppErrors. Other errors are returned unchanged.
func TranslateError(entity string, err error, onConflict ConflictMapper) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if onConflict != nil {
			if mapped := onConflict(pgErr.ConstraintName); mapped != nil {
				return mapped
			}
		}
		return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation("value violates a storage constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgRaiseException:
		return apperror.NewImmutableField(entity, pgErr.ColumnName).WithCause(err)
	}
	return err
}
