package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"pos-recipe-engine/src/models"
)

// PostgreSQL SQLSTATE codes that mean "try again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// uniqueFields names the request field behind each unique index.
var uniqueFields = map[string]string{
	"uniq_materials_tenant_sku":   "sku",
	"uniq_recipes_active_product": "is_active",
}

// translateError maps driver and ORM errors onto the domain error taxonomy.
// Domain errors pass through untouched.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return &models.ConcurrencyConflictError{Op: op, Err: err}
		case pgUniqueViolation:
			field, ok := uniqueFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}
			return models.NewValidationError(field, "already exists")
		}
	}
	return err
}
