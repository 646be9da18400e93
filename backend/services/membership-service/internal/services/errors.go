package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingReference         = errors.New("missing_reference")
	ErrStoreNotConfigured       = errors.New("member_store_not_configured")
	ErrReconciliationFailed     = errors.New("reconciliation_failed")
	ErrTransactionNotSuccessful = errors.New("transaction_not_successful")
)

// PaymentNotSuccessfulError is returned when the provider knows the
// transaction but does not report it as paid.
type PaymentNotSuccessfulError struct {
	Reference       string
	Status          string
	GatewayResponse string
}

func (e *PaymentNotSuccessfulError) Error() string {
	return fmt.Sprintf("transaction %s not successful (status=%s): %s", e.Reference, e.Status, e.GatewayResponse)
}

func (e *PaymentNotSuccessfulError) Is(target error) bool {
	return target == ErrTransactionNotSuccessful
}

// PublicMessage is safe to show to the payer.
func (e *PaymentNotSuccessfulError) PublicMessage() string {
	if e.GatewayResponse != "" {
		return e.GatewayResponse
	}
	return "Payment was not successful"
}
