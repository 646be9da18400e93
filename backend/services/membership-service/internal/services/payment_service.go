// membership-service/internal/services/payment_service.go

package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type VerifyResult struct {
	Event     *models.PaymentEvent
	Reconcile *ReconcileResult
}

type WebhookResult struct {
	Notification *models.WebhookNotification
	// Reconcile is set only for successful charges.
	Reconcile *ReconcileResult
}

// PaymentService drives both entry points: verify → reconcile → side
// channels, and webhook → reconcile → side channels. Side channels start
// only after reconciliation has committed, run in the background and never
// change the outcome.
type PaymentService interface {
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)
	HandleWebhook(ctx context.Context, body []byte, header http.Header) (*WebhookResult, error)
	// Wait blocks until every side channel started so far has finished.
	Wait()
}

type paymentService struct {
	gateway    PaymentGateway
	reconciler ReconciliationService
	invites    InvitationService
	welcome    WelcomeEmailService

	sideChannels sync.WaitGroup
}

func NewPaymentService(
	gateway PaymentGateway,
	reconciler ReconciliationService,
	invites InvitationService,
	welcome WelcomeEmailService,
) PaymentService {
	return &paymentService{
		gateway:    gateway,
		reconciler: reconciler,
		invites:    invites,
		welcome:    welcome,
	}
}

func (s *paymentService) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrMissingReference
	}
	if s.gateway == nil {
		return nil, utils.ErrProviderNotConfigured
	}

	ev, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !ev.Succeeded() {
		utils.Logger.WithFields(logrus.Fields{
			"reference": reference,
			"status":    ev.RawStatus,
		}).Info("Verified transaction is not successful")
		return nil, &PaymentNotSuccessfulError{
			Reference:       reference,
			Status:          ev.RawStatus,
			GatewayResponse: ev.GatewayResponse,
		}
	}

	res, err := s.reconciler.Reconcile(ctx, *ev)
	if err != nil {
		return nil, err
	}
	s.afterReconcile(ctx, res)
	return &VerifyResult{Event: ev, Reconcile: res}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, header http.Header) (*WebhookResult, error) {
	if s.gateway == nil {
		webhookEventsTotal.WithLabelValues("unknown", "not_configured").Inc()
		return nil, utils.ErrProviderNotConfigured
	}

	n, err := s.gateway.ParseWebhook(body, header)
	if err != nil {
		webhookEventsTotal.WithLabelValues("unknown", webhookErrorResult(err)).Inc()
		return nil, err
	}

	log := utils.Logger.WithFields(logrus.Fields{
		"provider": s.gateway.Name(),
		"event":    n.EventType,
		"event_id": n.EventID,
	})

	switch n.Kind {
	case models.WebhookChargeSucceeded:
		res, err := s.reconciler.Reconcile(ctx, *n.Event)
		if err != nil {
			webhookEventsTotal.WithLabelValues(n.EventType, resultFailed).Inc()
			return nil, err
		}
		s.afterReconcile(ctx, res)
		webhookEventsTotal.WithLabelValues(n.EventType, string(res.Outcome)).Inc()
		return &WebhookResult{Notification: n, Reconcile: res}, nil

	case models.WebhookChargeFailed:
		if n.Event != nil {
			log = log.WithFields(logrus.Fields{
				"reference":        n.Event.Reference,
				"email":            n.Event.Email,
				"gateway_response": n.Event.GatewayResponse,
			})
		}
		log.Info("Payment failed at provider; no membership change")
		webhookEventsTotal.WithLabelValues(n.EventType, "logged").Inc()

	default:
		log.Debug("Ignoring unrecognized webhook event")
		webhookEventsTotal.WithLabelValues(n.EventType, "ignored").Inc()
	}
	return &WebhookResult{Notification: n}, nil
}

func (s *paymentService) Wait() {
	s.sideChannels.Wait()
}

// afterReconcile starts the best-effort side channels and returns at once.
// They run on a copy of the member under a context that outlives the
// request; each keeps its own timeout. The Slack invitation fires on every
// outcome so a replay can finish an earlier failed invite.
func (s *paymentService) afterReconcile(ctx context.Context, res *ReconcileResult) {
	if res == nil || res.Member == nil {
		return
	}
	member := *res.Member
	sendWelcome := res.Outcome == OutcomeCreated
	bg := context.WithoutCancel(ctx)

	s.sideChannels.Add(1)
	go func() {
		defer s.sideChannels.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.WithField("member_id", member.ID).Errorf("Side channel panicked: %v", r)
			}
		}()

		if s.invites != nil {
			s.invites.Invite(bg, &member)
		}
		if s.welcome != nil && sendWelcome {
			if err := s.welcome.SendWelcome(bg, &member); err != nil {
				utils.Logger.WithError(err).WithField("member_id", member.ID).Warn("Welcome email failed; membership is unaffected")
			}
		}
	}()
}

func webhookErrorResult(err error) string {
	switch {
	case errors.Is(err, utils.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, utils.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, utils.ErrMissingCustomerEmail):
		return "missing_email"
	case errors.Is(err, utils.ErrProviderNotConfigured):
		return "not_configured"
	default:
		return resultFailed
	}
}
