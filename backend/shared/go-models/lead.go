// go-models/lead.go

package models

import (
	"time"

	"github.com/google/uuid"
)

type LeadKind string

const (
	LeadKindWaitlist          LeadKind = "waitlist"
	LeadKindPartnership       LeadKind = "partnership"
	LeadKindEventRegistration LeadKind = "event_registration"
)

// Lead is a submission from one of the public capture forms.
type Lead struct {
	ID           uuid.UUID `json:"id"`
	Kind         LeadKind  `json:"kind"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Organization *string   `json:"organization,omitempty"`
	EventSlug    string    `json:"event_slug,omitempty"`
	Message      *string   `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
