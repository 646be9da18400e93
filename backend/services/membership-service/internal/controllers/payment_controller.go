package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/config"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/constants"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/dtos"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/services"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

var paymentValidate = validator.New()

type PaymentController struct {
	cfg     *config.Config
	payment services.PaymentService
}

func NewPaymentController(cfg *config.Config, payment services.PaymentService) *PaymentController {
	return &PaymentController{cfg: cfg, payment: payment}
}

// GET /api/v1/membership/payment/verify?reference=
func (c *PaymentController) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.VerifyPaymentQuery{Reference: r.URL.Query().Get("reference")}
	if err := paymentValidate.Struct(q); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeMissingReference, "Payment reference is required", nil, err)
		return
	}

	res, err := c.payment.VerifyPayment(r.Context(), q.Reference)
	if err != nil {
		c.respondVerifyError(w, q.Reference, err)
		return
	}

	ev := res.Event
	member := res.Reconcile.Member
	utils.RespondWithJSON(w, http.StatusOK, dtos.VerifyPaymentResponse{
		Success: true,
		Message: constants.MsgPaymentVerified,
		Transaction: &dtos.TransactionSummary{
			Reference: ev.Reference,
			Amount:    ev.AmountMajorUnits(),
			Currency:  ev.Currency,
			Status:    ev.RawStatus,
			Email:     member.Email,
			Name:      member.Name,
		},
	})
}

func (c *PaymentController) respondVerifyError(w http.ResponseWriter, reference string, err error) {
	var notPaid *services.PaymentNotSuccessfulError
	switch {
	case errors.As(err, &notPaid):
		utils.RespondWithJSON(w, http.StatusBadRequest, dtos.VerifyPaymentResponse{
			Success: false,
			Message: notPaid.PublicMessage(),
		})
		utils.Logger.WithField("reference", reference).WithField("status", notPaid.Status).Warn("Verify called for unsuccessful transaction")
	case errors.Is(err, services.ErrMissingReference):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeMissingReference, "Payment reference is required", nil, err)
	case errors.Is(err, utils.ErrMissingCustomerEmail):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeMissingCustomerEmail, "Payment has no customer email", nil, err)
	case errors.Is(err, utils.ErrProviderNotConfigured), errors.Is(err, services.ErrStoreNotConfigured):
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeConfiguration, "Payment verification is not configured", nil, err)
	case errors.Is(err, services.ErrReconciliationFailed):
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeRegistrationFailed,
			fmt.Sprintf(constants.MsgRegistrationFailed, c.cfg.SupportEmail, reference), nil, err)
	case errors.Is(err, utils.ErrProviderCommunication):
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeProviderFailure, "Could not reach the payment provider", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Payment verification failed", nil, err)
	}
}

// POST /api/v1/membership/payment/webhook
func (c *PaymentController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.WebhookMaxBodyBytes))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	if _, err := c.payment.HandleWebhook(r.Context(), body, r.Header); err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidSignature):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeInvalidSignature, constants.MsgInvalidSignature, nil, err)
		case errors.Is(err, utils.ErrMalformedPayload):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed webhook payload", nil, err)
		case errors.Is(err, utils.ErrMissingCustomerEmail):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeMissingCustomerEmail, "Webhook charge has no customer email", nil, err)
		case errors.Is(err, utils.ErrProviderNotConfigured), errors.Is(err, services.ErrStoreNotConfigured):
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeConfiguration, "Webhook handling is not configured", nil, err)
		default:
			// the provider redelivers on 5xx
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeReconciliationFailed, "Reconciliation failed", nil, err)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.WebhookAckResponse{Received: true})
}
