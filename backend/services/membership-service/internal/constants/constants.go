package constants

import "time"

// Reconciliation
const (
	MaxReconcileAttempts = 3
)

// Side channels run in the background after reconciliation, each under its
// own timeout.
const (
	SlackInviteTimeout     = 10 * time.Second
	SlackInviteMaxAttempts = 3
	WelcomeEmailTimeout    = 10 * time.Second
	ProviderRequestTimeout = 15 * time.Second
	ProviderMaxAttempts    = 3
	ProviderInitialBackoff = 500 * time.Millisecond
	WebhookMaxBodyBytes    = 1 << 20
)

// Email Subjects and Content
const (
	EmailSubjectWelcome = "Welcome to %s!"
	MembershipTeamName  = "TechCircle Membership"
)

// Public messages returned to the payer
const (
	MsgPaymentVerified    = "Payment verified successfully"
	MsgRegistrationFailed = "Your payment was successful but we could not complete your registration. " +
		"Please contact support at %s and quote your payment reference %s."
	MsgInvalidSignature = "Invalid signature"
)
