// go-models/payment_event.go

package models

import "time"

const (
	PaymentProviderPaystack = "paystack"
	PaymentProviderStripe   = "stripe"
)

// PaymentEvent is the provider-neutral view of one transaction, built per
// notification and never persisted as such.
type PaymentEvent struct {
	Provider         string     `json:"provider"`
	Reference        string     `json:"reference"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	AmountMinorUnits int64      `json:"amount"`
	Currency         string     `json:"currency"`
	RawStatus        string     `json:"status"`
	GatewayResponse  string     `json:"gateway_response,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// Succeeded reports whether the provider marked the transaction successful.
func (e *PaymentEvent) Succeeded() bool {
	return e != nil && e.RawStatus == string(PaymentStatusSuccess)
}

// AmountMajorUnits converts the minor-unit amount (kobo, cents) for display.
func (e *PaymentEvent) AmountMajorUnits() float64 {
	return float64(e.AmountMinorUnits) / 100
}

type WebhookKind string

const (
	WebhookChargeSucceeded WebhookKind = "charge_succeeded"
	WebhookChargeFailed    WebhookKind = "charge_failed"
	WebhookUnrecognized    WebhookKind = "unrecognized"
)

// WebhookNotification is a signature-verified provider webhook. Event is nil
// for unrecognized event types.
type WebhookNotification struct {
	Kind      WebhookKind
	EventType string
	EventID   string
	Event     *PaymentEvent
}
