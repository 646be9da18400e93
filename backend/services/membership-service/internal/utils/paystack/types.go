package paystack

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"

	TransactionStatusSuccess = "success"

	SignatureHeader = "x-paystack-signature"
)

// Envelope is the wrapper every Paystack API response uses.
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type Customer struct {
	ID           int64  `json:"id,omitempty"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	CustomerCode string `json:"customer_code,omitempty"`
}

// Transaction is the subset of the Paystack transaction resource the
// membership flow reads.
type Transaction struct {
	ID              int64    `json:"id,omitempty"`
	Status          string   `json:"status,omitempty"`
	Reference       string   `json:"reference,omitempty"`
	Amount          int64    `json:"amount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	GatewayResponse string   `json:"gateway_response,omitempty"`
	Channel         string   `json:"channel,omitempty"`
	PaidAt          string   `json:"paid_at,omitempty"`
	Customer        Customer `json:"customer"`
	Metadata        Metadata `json:"metadata"`
}

// CustomField is one entry of metadata.custom_fields as produced by
// Paystack Inline and payment pages.
type CustomField struct {
	DisplayName  string `json:"display_name,omitempty"`
	VariableName string `json:"variable_name,omitempty"`
	Value        any    `json:"value,omitempty"`
}

// Metadata is the free-form metadata attached at checkout. Paystack sends
// it as an object, as a JSON-encoded string, as "" or not at all.
type Metadata struct {
	FullName     string        `json:"full_name,omitempty"`
	Email        string        `json:"email,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, "{") {
			*m = Metadata{}
			return nil
		}
		b = []byte(s)
	}
	if b[0] != '{' {
		*m = Metadata{}
		return nil
	}

	type plain Metadata
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	return nil
}

// Field returns the metadata value named key, looking at the top level
// first and then at custom_fields by variable_name.
func (m Metadata) Field(key string) string {
	if key == "full_name" && strings.TrimSpace(m.FullName) != "" {
		return strings.TrimSpace(m.FullName)
	}
	if key == "email" && strings.TrimSpace(m.Email) != "" {
		return strings.TrimSpace(m.Email)
	}
	for _, f := range m.CustomFields {
		if f.VariableName != key {
			continue
		}
		if s, ok := f.Value.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// WebhookEvent is the body Paystack POSTs to the webhook URL.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}
