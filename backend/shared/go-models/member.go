// go-models/member.go

package models

import (
	"time"

	"github.com/google/uuid"
)

type MembershipStatusType string

const (
	MembershipStatusActive    MembershipStatusType = "active"
	MembershipStatusInactive  MembershipStatusType = "inactive"
	MembershipStatusSuspended MembershipStatusType = "suspended"
)

type PaymentStatusType string

const (
	PaymentStatusSuccess PaymentStatusType = "success"
	PaymentStatusFailed  PaymentStatusType = "failed"
)

// Member is a paying member of the community. Email and PaymentReference
// are both natural keys; PaymentReference always holds the most recent
// successful payment.
type Member struct {
	ID                uuid.UUID            `json:"id"`
	Name              string               `json:"name"`
	Email             string               `json:"email"`
	PaymentReference  string               `json:"payment_reference"`
	PaymentAmount     int64                `json:"payment_amount"`
	PaymentCurrency   string               `json:"payment_currency"`
	PaymentStatus     PaymentStatusType    `json:"payment_status"`
	MembershipStatus  MembershipStatusType `json:"membership_status"`
	SlackInvited      bool                 `json:"slack_invited"`
	SlackInviteSentAt *time.Time           `json:"slack_invite_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
