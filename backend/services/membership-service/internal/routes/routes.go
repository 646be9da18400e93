package routes

const (
	Health                   = "/health"
	Metrics                  = "/metrics"
	MembershipPaymentVerify  = "/api/v1/membership/payment/verify"
	MembershipPaymentWebhook = "/api/v1/membership/payment/webhook"
)
