package testhelpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const PaystackSignatureHeader = "x-paystack-signature"

// PaystackCharge describes one Paystack transaction for building verify
// responses and webhook bodies. Empty Email leaves customer.email out.
type PaystackCharge struct {
	Reference       string
	Email           string
	FirstName       string
	LastName        string
	Amount          int64
	Currency        string
	Status          string
	GatewayResponse string
	// Metadata is serialized as-is: a map, "" or nil are all valid.
	Metadata any
}

func (c PaystackCharge) data() map[string]any {
	customer := map[string]any{
		"id":         12345,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
	}
	if c.Email != "" {
		customer["email"] = c.Email
	}
	d := map[string]any{
		"id":               987654,
		"reference":        c.Reference,
		"amount":           c.Amount,
		"status":           c.Status,
		"gateway_response": c.GatewayResponse,
		"paid_at":          time.Now().UTC().Format(time.RFC3339),
		"customer":         customer,
		"metadata":         c.Metadata,
	}
	if c.Currency != "" {
		d["currency"] = c.Currency
	}
	return d
}

// MockPaystackWebhookPayload builds a Paystack webhook body for event.
func MockPaystackWebhookPayload(t *testing.T, event string, c PaystackCharge) []byte {
	t.Helper()

	b, err := json.Marshal(map[string]any{
		"event": event,
		"data":  c.data(),
	})
	require.NoError(t, err, "Failed to marshal mock Paystack webhook payload")
	return b
}

// MockPaystackVerifyResponse builds the body Paystack returns from
// GET /transaction/verify/{reference}.
func MockPaystackVerifyResponse(t *testing.T, c PaystackCharge) []byte {
	t.Helper()

	b, err := json.Marshal(map[string]any{
		"status":  true,
		"message": "Verification successful",
		"data":    c.data(),
	})
	require.NoError(t, err, "Failed to marshal mock Paystack verify response")
	return b
}

// SignPaystackPayload produces the x-paystack-signature header value.
func SignPaystackPayload(secret string, payload []byte) string {
	return utils.SignHMACSHA512(secret, payload)
}

// NewPaystackWebhookRequest builds a signed webhook POST against url.
func NewPaystackWebhookRequest(t *testing.T, url, secret string, payload []byte) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(string(payload)))
	require.NoError(t, err, "failed to create webhook POST request")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(PaystackSignatureHeader, SignPaystackPayload(secret, payload))
	return req
}

// SignStripePayload constructs the "Stripe-Signature" header value.
func SignStripePayload(secret string, payload []byte) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.", timestamp)))
	_, _ = mac.Write(payload)
	signature := mac.Sum(nil)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(signature))
}

// MockStripeWebhookPayload creates a JSON byte slice for a Stripe webhook event.
func MockStripeWebhookPayload(t *testing.T, eventType string, data map[string]any) []byte {
	t.Helper()

	payload := map[string]any{
		"id":          "evt_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		"object":      "event",
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"type":        eventType,
		"data": map[string]any{
			"object": data,
		},
	}

	jsonBytes, err := json.Marshal(payload)
	require.NoError(t, err, "Failed to marshal mock Stripe webhook payload")
	return jsonBytes
}

// MockStripePaymentIntent returns the "data.object" of a payment_intent event.
func MockStripePaymentIntent(id, email, fullName string, amount int64, currency, status string) map[string]any {
	metadata := map[string]any{}
	if fullName != "" {
		metadata["full_name"] = fullName
	}
	return map[string]any{
		"id":            id,
		"object":        "payment_intent",
		"amount":        amount,
		"currency":      currency,
		"status":        status,
		"receipt_email": email,
		"metadata":      metadata,
	}
}
