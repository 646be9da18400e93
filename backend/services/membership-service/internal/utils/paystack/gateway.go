package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

// Gateway adapts Paystack to the provider-neutral payment events the
// membership flow consumes. Paystack signs webhooks with the API secret key.
type Gateway struct {
	client          *Client
	secretKey       string
	defaultCurrency string
}

func NewGateway(client *Client, defaultCurrency string) *Gateway {
	g := &Gateway{client: client, defaultCurrency: defaultCurrency}
	if client != nil {
		g.secretKey = client.SecretKey
	}
	return g
}

func (g *Gateway) Name() string {
	return models.PaymentProviderPaystack
}

func (g *Gateway) VerifyTransaction(ctx context.Context, reference string) (*models.PaymentEvent, error) {
	if g.client == nil || g.secretKey == "" {
		return nil, utils.ErrProviderNotConfigured
	}
	tx, err := g.client.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	ev, err := g.toPaymentEvent(tx)
	if err != nil && tx.Status == TransactionStatusSuccess {
		return nil, err
	}
	return ev, nil
}

// ParseWebhook authenticates body against the x-paystack-signature header
// before decoding anything.
func (g *Gateway) ParseWebhook(body []byte, header http.Header) (*models.WebhookNotification, error) {
	if g.secretKey == "" {
		return nil, utils.ErrProviderNotConfigured
	}
	if !utils.ValidHMACSHA512(g.secretKey, body, header.Get(SignatureHeader)) {
		return nil, utils.ErrInvalidSignature
	}

	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedPayload, err)
	}

	n := &models.WebhookNotification{EventType: evt.Event, EventID: evt.Data.Reference}
	switch evt.Event {
	case EventChargeSuccess:
		n.Kind = models.WebhookChargeSucceeded
		ev, err := g.toPaymentEvent(&evt.Data)
		if err != nil {
			return nil, err
		}
		n.Event = ev
	case EventChargeFailed:
		n.Kind = models.WebhookChargeFailed
		// a failed charge is only logged, so a missing email is tolerated
		n.Event, _ = g.toPaymentEvent(&evt.Data)
	default:
		n.Kind = models.WebhookUnrecognized
	}
	return n, nil
}

// toPaymentEvent always returns the event it could build. The error is
// utils.ErrMissingCustomerEmail when the customer has no email.
func (g *Gateway) toPaymentEvent(tx *Transaction) (*models.PaymentEvent, error) {
	ev := &models.PaymentEvent{
		Provider:         models.PaymentProviderPaystack,
		Reference:        tx.Reference,
		Email:            strings.TrimSpace(tx.Customer.Email),
		Name:             extractName(tx),
		AmountMinorUnits: tx.Amount,
		Currency:         strings.ToUpper(utils.FirstNonEmpty(strings.TrimSpace(tx.Currency), g.defaultCurrency, utils.DefaultCurrency)),
		RawStatus:        tx.Status,
		GatewayResponse:  tx.GatewayResponse,
	}
	if tx.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, tx.PaidAt); err == nil {
			ev.PaidAt = &t
		}
	}
	if ev.Email == "" {
		return ev, utils.ErrMissingCustomerEmail
	}
	return ev, nil
}

func extractName(tx *Transaction) string {
	return utils.FirstNonEmpty(
		tx.Metadata.Field("full_name"),
		strings.TrimSpace(tx.Customer.FirstName),
		strings.TrimSpace(tx.Customer.LastName),
		utils.FallbackCustomerName,
	)
}
