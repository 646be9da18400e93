package dtos

import (
	"strings"

	"github.com/techcircle/community-site/backend/shared/go-models"
)

type HealthCheckResponse struct {
	Status string `json:"status"`
}

type WaitlistRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"omitempty,max=200"`
}

func (r *WaitlistRequest) ToLead() *models.Lead {
	return &models.Lead{
		Kind:     models.LeadKindWaitlist,
		Email:    r.Email,
		FullName: strings.TrimSpace(r.FullName),
	}
}

type PartnershipRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required,min=2,max=200"`
	Organization string `json:"organization" validate:"required,max=200"`
	Message      string `json:"message" validate:"omitempty,max=4000"`
}

func (r *PartnershipRequest) ToLead() *models.Lead {
	l := &models.Lead{
		Kind:         models.LeadKindPartnership,
		Email:        r.Email,
		FullName:     strings.TrimSpace(r.FullName),
		Organization: optional(r.Organization),
		Message:      optional(r.Message),
	}
	return l
}

type EventRegistrationRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required,min=2,max=200"`
	EventSlug string `json:"event_slug" validate:"required,max=120"`
}

func (r *EventRegistrationRequest) ToLead() *models.Lead {
	return &models.Lead{
		Kind:      models.LeadKindEventRegistration,
		Email:     r.Email,
		FullName:  strings.TrimSpace(r.FullName),
		EventSlug: strings.ToLower(strings.TrimSpace(r.EventSlug)),
	}
}

type LeadResponse struct {
	Message string `json:"message"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
