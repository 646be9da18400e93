package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Lead capture
	LeadsWaitlist          = "/api/v1/leads/waitlist"
	LeadsPartnership       = "/api/v1/leads/partnership"
	LeadsEventRegistration = "/api/v1/leads/event-registration"
)
