package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/dtos"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/services"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const (
	msgReceived  = "Received - check your inbox!"
	msgDuplicate = "You're already on our list - thanks!"
)

type leadRequest interface {
	ToLead() *models.Lead
}

type LeadController struct {
	svc services.LeadService
}

func NewLeadController(s services.LeadService) *LeadController {
	return &LeadController{svc: s}
}

var validate = validator.New()

// -----------------------------------------------------------------------------
// POST /api/v1/leads/waitlist
// -----------------------------------------------------------------------------
func (c *LeadController) SubmitWaitlist(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, &dtos.WaitlistRequest{})
}

// -----------------------------------------------------------------------------
// POST /api/v1/leads/partnership
// -----------------------------------------------------------------------------
func (c *LeadController) SubmitPartnership(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, &dtos.PartnershipRequest{})
}

// -----------------------------------------------------------------------------
// POST /api/v1/leads/event-registration
// -----------------------------------------------------------------------------
func (c *LeadController) SubmitEventRegistration(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, &dtos.EventRegistrationRequest{})
}

// -----------------------------------------------------------------------------
// shared helper
// -----------------------------------------------------------------------------
func (c *LeadController) handle(w http.ResponseWriter, r *http.Request, req leadRequest) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing or malformed fields", validationDetails(err), err,
		)
		return
	}

	res, err := c.svc.Submit(r.Context(), req.ToLead())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	msg := msgReceived
	if res.Duplicate {
		msg = msgDuplicate
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.LeadResponse{Message: msg})
}

// validationDetails lists the failing JSON fields, e.g. {"email": "email"}.
func validationDetails(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
