package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"membership-backend/internal/domain"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
)

var constraintMessages = map[string]string{
	"membership_applications_national_id_key": "an application with this national ID already exists",
	"membership_applications_email_lower_key": "an application with this email already exists",
	"accounts_username_key":                   "username is already taken",
	"donation_orders_preference_id_key":       "preference is already attached to another order",
	"donation_orders_payment_id_key":          "payment is already attached to another order",
}

// mapError turns driver errors into domain error kinds. Unknown errors pass through.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(fmt.Sprintf("%s not found", entity))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			if msg, ok := constraintMessages[pqErr.Constraint]; ok {
				return domain.NewError(domain.ErrConflict, msg)
			}
			return domain.Conflict(fmt.Sprintf("%s already exists", entity))
		case codeLockNotAvailable:
			return domain.Conflict(fmt.Sprintf("%s is locked by another operation", entity))
		}
	}
	return err
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(fmt.Sprintf("%s not found", entity))
	}
	return nil
}
