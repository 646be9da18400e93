package stripegw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"

	SignatureHeader = "Stripe-Signature"
)

type intentFetcher func(ctx context.Context, id string) (*stripe.PaymentIntent, error)

// Gateway adapts Stripe PaymentIntents to provider-neutral payment events.
// The verify reference is the PaymentIntent ID.
type Gateway struct {
	secretKey       string
	webhookSecret   string
	defaultCurrency string
	fetchIntent     intentFetcher
}

func NewGateway(secretKey, webhookSecret, defaultCurrency string) *Gateway {
	g := &Gateway{
		secretKey:       secretKey,
		webhookSecret:   webhookSecret,
		defaultCurrency: defaultCurrency,
	}
	if secretKey != "" {
		sc := stripe.NewClient(secretKey)
		g.fetchIntent = func(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
			return sc.V1PaymentIntents.Retrieve(ctx, id, nil)
		}
	}
	return g
}

func (g *Gateway) Name() string {
	return models.PaymentProviderStripe
}

func (g *Gateway) VerifyTransaction(ctx context.Context, reference string) (*models.PaymentEvent, error) {
	if g.fetchIntent == nil {
		return nil, utils.ErrProviderNotConfigured
	}
	pi, err := g.fetchIntent(ctx, reference)
	if err != nil {
		return nil, translateStripeError(err)
	}
	ev, err := g.toPaymentEvent(pi)
	if err != nil && ev.Succeeded() {
		return nil, err
	}
	return ev, nil
}

func (g *Gateway) ParseWebhook(body []byte, header http.Header) (*models.WebhookNotification, error) {
	if g.webhookSecret == "" {
		return nil, utils.ErrProviderNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(
		body, header.Get(SignatureHeader), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		if isSignatureError(err) {
			return nil, utils.ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedPayload, err)
	}

	n := &models.WebhookNotification{EventType: string(event.Type), EventID: event.ID}
	switch string(event.Type) {
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed:
	default:
		n.Kind = models.WebhookUnrecognized
		return n, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event has no data", utils.ErrMalformedPayload)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedPayload, err)
	}

	ev, extractErr := g.toPaymentEvent(&pi)
	if string(event.Type) == EventPaymentIntentSucceeded {
		n.Kind = models.WebhookChargeSucceeded
		if extractErr != nil {
			return nil, extractErr
		}
	} else {
		n.Kind = models.WebhookChargeFailed
	}
	n.Event = ev
	return n, nil
}

func (g *Gateway) toPaymentEvent(pi *stripe.PaymentIntent) (*models.PaymentEvent, error) {
	status := string(pi.Status)
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		status = string(models.PaymentStatusSuccess)
	}

	ev := &models.PaymentEvent{
		Provider:         models.PaymentProviderStripe,
		Reference:        pi.ID,
		Email:            strings.TrimSpace(utils.FirstNonEmpty(pi.ReceiptEmail, pi.Metadata["email"])),
		Name:             utils.FirstNonEmpty(strings.TrimSpace(pi.Metadata["full_name"]), utils.FallbackCustomerName),
		AmountMinorUnits: pi.Amount,
		Currency:         strings.ToUpper(utils.FirstNonEmpty(string(pi.Currency), g.defaultCurrency, utils.DefaultCurrency)),
		RawStatus:        status,
	}
	if pi.LastPaymentError != nil {
		ev.GatewayResponse = pi.LastPaymentError.Msg
	}
	if pi.Created > 0 && pi.Status == stripe.PaymentIntentStatusSucceeded {
		t := time.Unix(pi.Created, 0).UTC()
		ev.PaidAt = &t
	}
	if ev.Email == "" {
		return ev, utils.ErrMissingCustomerEmail
	}
	return ev, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// translateStripeError maps API errors onto the shared provider taxonomy.
func translateStripeError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return &utils.ProviderError{
			Provider:   models.PaymentProviderStripe,
			StatusCode: serr.HTTPStatusCode,
			Message:    serr.Msg,
		}
	}
	return fmt.Errorf("%w: %v", utils.ErrProviderCommunication, err)
}
