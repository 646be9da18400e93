package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const pgUniqueViolation = "23505"

// Constraint names declared in schema.sql.
const (
	constraintMembersEmail            = "members_email_key"
	constraintMembersPaymentReference = "members_payment_reference_key"
	constraintLeadsNaturalKey         = "leads_kind_email_event_slug_key"
)

// mapPgError turns unique violations on known constraints into the shared
// sentinels. The original *pgconn.PgError stays in the chain.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintMembersEmail:
		return fmt.Errorf("%w: %w", utils.ErrEmailExists, err)
	case constraintMembersPaymentReference:
		return fmt.Errorf("%w: %w", utils.ErrPaymentReferenceExists, err)
	case constraintLeadsNaturalKey:
		return fmt.Errorf("%w: %w", utils.ErrDuplicateLead, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint conflict,
// mapped or not.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, utils.ErrEmailExists) ||
		errors.Is(err, utils.ErrPaymentReferenceExists) ||
		errors.Is(err, utils.ErrDuplicateLead) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
