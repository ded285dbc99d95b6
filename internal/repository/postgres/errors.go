package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// mapError translates driver errors into the application taxonomy.
// Store-level constraint violations (the uniqueness invariants live in
// the schema, not just in application checks) surface as conflicts the
// handler layer turns into form errors.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(resource, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.NewConflict(fmt.Sprintf("%s already exists", resource), err)
		case pqForeignKeyViolation:
			return apperrors.NewConflict(fmt.Sprintf("%s references a missing record", resource), err)
		case pqCheckViolation:
			return apperrors.NewValidation(fmt.Sprintf("%s violates a data constraint", resource))
		}
	}
	return err
}
