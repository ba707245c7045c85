package postgres

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aexfood/orders/internal/domain/apperr"
)

// integrityClass is the SQLSTATE class of integrity constraint violations.
const integrityClass = "23"

// storageErr wraps err as an apperr.StorageError, flagging constraint
// violations as integrity failures.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, integrityClass) {
		return &apperr.StorageError{
			Op:         op,
			Integrity:  true,
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}
	return apperr.Storage(op, false, err)
}
