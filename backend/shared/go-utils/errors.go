// backend/shared/go-utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-level errors shared by the services and repositories.
var (
	ErrInvalidEmail           = errors.New("invalid_email")
	ErrEmailExists            = errors.New("email_exists")
	ErrPaymentReferenceExists = errors.New("payment_reference_exists")
	ErrDuplicateLead          = errors.New("duplicate_lead")

	// Storage
	ErrNoRowsUpdated = errors.New("no_rows_updated")

	// External service failures (SendGrid, Slack)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	// Payment provider boundary
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrMalformedPayload      = errors.New("malformed_payload")
	ErrMissingCustomerEmail  = errors.New("missing_customer_email")
	ErrProviderNotConfigured = errors.New("payment_provider_not_configured")
	ErrProviderCommunication = errors.New("payment_provider_communication_failure")
)

// ProviderError carries a failure reported by the payment provider itself
// (as opposed to a transport failure), e.g. an unknown reference.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider responded %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap lets callers treat any provider-side failure as a communication failure.
func (e *ProviderError) Unwrap() error {
	return ErrProviderCommunication
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
