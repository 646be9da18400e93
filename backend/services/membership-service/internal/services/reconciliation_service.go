// membership-service/internal/services/reconciliation_service.go

package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/constants"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type ReconcileOutcome string

const (
	OutcomeCreated           ReconcileOutcome = "created"
	OutcomeRenewed           ReconcileOutcome = "renewed"
	OutcomeAlreadyReconciled ReconcileOutcome = "already_reconciled"
)

type ReconcileResult struct {
	Member  *models.Member
	Outcome ReconcileOutcome
}

// ReconciliationService turns successful payments into member rows. It is
// safe to call any number of times, concurrently, for the same payment.
type ReconciliationService interface {
	Reconcile(ctx context.Context, event models.PaymentEvent) (*ReconcileResult, error)
}

type reconciliationService struct {
	repo        repositories.MemberRepository
	maxAttempts int
}

func NewReconciliationService(repo repositories.MemberRepository) ReconciliationService {
	return &reconciliationService{repo: repo, maxAttempts: constants.MaxReconcileAttempts}
}

func (s *reconciliationService) Reconcile(ctx context.Context, event models.PaymentEvent) (*ReconcileResult, error) {
	if s.repo == nil {
		return nil, ErrStoreNotConfigured
	}
	if !event.Succeeded() {
		return nil, &PaymentNotSuccessfulError{
			Reference:       event.Reference,
			Status:          event.RawStatus,
			GatewayResponse: event.GatewayResponse,
		}
	}

	email := utils.NormalizeEmail(event.Email)
	if email == "" {
		return nil, utils.ErrMissingCustomerEmail
	}
	reference := strings.TrimSpace(event.Reference)
	if reference == "" {
		return nil, ErrMissingReference
	}
	name := memberName(event.Name, email)
	currency := strings.ToUpper(utils.FirstNonEmpty(strings.TrimSpace(event.Currency), utils.DefaultCurrency))

	log := utils.Logger.WithFields(logrus.Fields{
		"provider":  event.Provider,
		"reference": reference,
		"email":     email,
	})

	var result *ReconcileResult
	err := repositories.RetryOnConflict(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(tx repositories.MemberRepository) error {
			existing, err := tx.FindByReferenceOrEmail(ctx, reference, email)
			if err != nil {
				return err
			}

			switch {
			case existing == nil:
				m := &models.Member{
					ID:               uuid.New(),
					Name:             name,
					Email:            email,
					PaymentReference: reference,
					PaymentAmount:    event.AmountMinorUnits,
					PaymentCurrency:  currency,
					PaymentStatus:    models.PaymentStatusSuccess,
					MembershipStatus: models.MembershipStatusActive,
				}
				if err := tx.Create(ctx, m); err != nil {
					return err
				}
				result = &ReconcileResult{Member: m, Outcome: OutcomeCreated}

			case existing.PaymentReference == reference:
				if existing.PaymentAmount != event.AmountMinorUnits || existing.PaymentCurrency != currency {
					log.WithFields(logrus.Fields{
						"stored_amount":     existing.PaymentAmount,
						"stored_currency":   existing.PaymentCurrency,
						"incoming_amount":   event.AmountMinorUnits,
						"incoming_currency": currency,
					}).Warn("Replayed payment differs from the stored snapshot; keeping stored values")
				}
				if existing.Email != email {
					log.WithField("member_email", existing.Email).Warn("Reference already reconciled for a different email")
				}
				result = &ReconcileResult{Member: existing, Outcome: OutcomeAlreadyReconciled}

			default:
				existing.Name = name
				existing.PaymentReference = reference
				existing.PaymentAmount = event.AmountMinorUnits
				existing.PaymentCurrency = currency
				existing.PaymentStatus = models.PaymentStatusSuccess
				existing.MembershipStatus = models.MembershipStatusActive
				if err := tx.UpdatePayment(ctx, existing); err != nil {
					return err
				}
				result = &ReconcileResult{Member: existing, Outcome: OutcomeRenewed}
			}
			return nil
		})
	})
	if err != nil {
		reconciliationsTotal.WithLabelValues(resultFailed).Inc()
		log.WithError(err).Error("Membership reconciliation failed")
		return nil, fmt.Errorf("%w: %w", ErrReconciliationFailed, err)
	}

	reconciliationsTotal.WithLabelValues(string(result.Outcome)).Inc()
	log.WithFields(logrus.Fields{
		"member_id": result.Member.ID,
		"outcome":   result.Outcome,
	}).Info("Membership reconciled")
	return result, nil
}

// memberName guarantees the stored name meets the minimum length: the
// provided name, else the email local part, else the generic fallback.
func memberName(raw, email string) string {
	if n := strings.TrimSpace(raw); utf8.RuneCountInString(n) >= utils.MinMemberNameLength {
		return n
	}
	if local := strings.TrimSpace(utils.EmailLocalPart(email)); utf8.RuneCountInString(local) >= utils.MinMemberNameLength {
		return local
	}
	return utils.FallbackCustomerName
}
