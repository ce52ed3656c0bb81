package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// storeError wraps a driver failure so callers can match ErrStoreUnavailable.
// Unique violations on the active short-code index become ErrDuplicateShortCode.
func storeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "organizations_email_key" {
			return fmt.Errorf("%s: %w", op, apperror.ErrEmailTaken)
		}
		return fmt.Errorf("%s: %w", op, apperror.ErrDuplicateShortCode)
	}
	return fmt.Errorf("%s: %w: %w", op, apperror.ErrStoreUnavailable, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
