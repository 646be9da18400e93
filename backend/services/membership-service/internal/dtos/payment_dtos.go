package dtos

// VerifyPaymentQuery is bound from the query string of the verify endpoint.
type VerifyPaymentQuery struct {
	Reference string `validate:"required"`
}

type TransactionSummary struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
}

type VerifyPaymentResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Transaction *TransactionSummary `json:"transaction,omitempty"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
