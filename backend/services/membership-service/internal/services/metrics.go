package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_reconciliations_total",
		Help: "Payment reconciliations by outcome.",
	}, []string{"outcome"})

	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_webhook_events_total",
		Help: "Payment provider webhook deliveries by event type and handling result.",
	}, []string{"event", "result"})

	slackInvitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_slack_invites_total",
		Help: "Slack workspace invitation attempts by result.",
	}, []string{"result"})

	welcomeEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_welcome_emails_total",
		Help: "Welcome emails by result.",
	}, []string{"result"})
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)
