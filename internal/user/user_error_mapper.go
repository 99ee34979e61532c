package user

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	usererrors "leavedesk/internal/user/errors"
)

const pgUniqueViolation = "23505"

// mapPersistenceError translates driver-level failures into stable API
// errors so handlers never leak SQLSTATE details to clients.
func mapPersistenceError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == "uq_users_email" {
			return usererrors.ErrEmailTaken
		}
	}
	return err
}
