package services

import (
	"context"
	"net/http"

	"github.com/techcircle/community-site/backend/shared/go-models"
)

// PaymentGateway is one payment provider seen through the two entry points
// the membership flow has: a synchronous verify by reference and an
// asynchronous signed webhook.
type PaymentGateway interface {
	Name() string
	VerifyTransaction(ctx context.Context, reference string) (*models.PaymentEvent, error)
	// ParseWebhook must authenticate body before decoding it and return
	// utils.ErrInvalidSignature on any mismatch.
	ParseWebhook(body []byte, header http.Header) (*models.WebhookNotification, error)
}
