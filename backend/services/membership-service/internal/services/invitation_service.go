// membership-service/internal/services/invitation_service.go

package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/constants"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/slackinvite"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type InviteResult string

const (
	InviteSkippedNotConfigured  InviteResult = "skipped_not_configured"
	InviteSkippedAlreadyInvited InviteResult = "skipped_already_invited"
	InviteSent                  InviteResult = "sent"
	InviteAlreadyMember         InviteResult = "already_member"
	InviteFailed                InviteResult = "failed"
)

// SlackInviter sends one workspace invitation.
type SlackInviter interface {
	Invite(ctx context.Context, email, name string) error
}

// InvitationService invites reconciled members to Slack. It never returns an
// error: every failure ends in a log line and a metric.
type InvitationService interface {
	Invite(ctx context.Context, m *models.Member) InviteResult
}

type invitationService struct {
	inviter SlackInviter
	repo    repositories.MemberRepository
	timeout time.Duration
	now     func() time.Time
}

// NewInvitationService builds the trigger. A nil inviter means Slack is not
// configured and every call is skipped.
func NewInvitationService(inviter SlackInviter, repo repositories.MemberRepository) InvitationService {
	return &invitationService{
		inviter: inviter,
		repo:    repo,
		timeout: constants.SlackInviteTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *invitationService) Invite(ctx context.Context, m *models.Member) InviteResult {
	result := s.invite(ctx, m)
	slackInvitesTotal.WithLabelValues(string(result)).Inc()
	return result
}

func (s *invitationService) invite(ctx context.Context, m *models.Member) InviteResult {
	if s.inviter == nil {
		utils.Logger.Debug("Slack not configured; skipping invitation")
		return InviteSkippedNotConfigured
	}
	if m == nil {
		return InviteFailed
	}
	log := utils.Logger.WithFields(logrus.Fields{"member_id": m.ID, "email": m.Email})
	if m.SlackInvited {
		log.Debug("Member already invited to Slack; skipping")
		return InviteSkippedAlreadyInvited
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.inviter.Invite(ctx, m.Email, m.Name); err != nil {
		if errors.Is(err, slackinvite.ErrAlreadyMember) {
			log.WithError(err).Warn("Slack reports member already invited or in workspace")
			return InviteAlreadyMember
		}
		log.WithError(err).Warn("Slack invitation failed; membership is unaffected")
		return InviteFailed
	}

	at := s.now()
	if err := s.repo.MarkSlackInvited(ctx, m.Email, at); err != nil {
		log.WithError(err).Warn("Slack invitation sent but recording it failed")
		return InviteSent
	}
	m.SlackInvited = true
	m.SlackInviteSentAt = &at
	log.Info("Slack invitation sent")
	return InviteSent
}
