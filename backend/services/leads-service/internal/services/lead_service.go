// leads-service/internal/services/lead_service.go

package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/config"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

// HTML template for the public-facing acknowledgment email.
const ackEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Thanks for reaching out!</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; margin: 0; padding: 20px; }
  .container { max-width: 500px; margin: auto; background: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; overflow: hidden; }
  .header { background-color: #0f766e; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; text-align: left; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; font-size: 12px; color: #6c757d; }
  p { margin-bottom: 1em; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%[1]s</h1>
    </div>
    <div class="content">
      <p>Hello%[2]s,</p>
      <p>%[3]s</p>
    </div>
    <div class="footer">
      © %[4]d %[5]s. All rights reserved.
    </div>
  </div>
</body>
</html>`

// HTML template for the internal notification email.
const internalNotificationEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: monospace; line-height: 1.5; }
  .container { border: 1px solid #ccc; padding: 15px; max-width: 600px; }
  h2 { margin-top: 0; }
  ul { list-style: none; padding: 0; }
  li { margin-bottom: 5px; }
  strong { color: #000; }
</style>
</head>
<body>
  <div class="container">
    <h2>New %s lead</h2>
    <ul>
      <li><strong>Email:</strong> %s</li>
      <li><strong>Name:</strong> %s</li>
      <li><strong>Organization:</strong> %s</li>
      <li><strong>Event:</strong> %s</li>
      <li><strong>Message:</strong> %s</li>
      <li><strong>Timestamp (UTC):</strong> %s</li>
    </ul>
  </div>
</body>
</html>`

// Mailer is the SendGrid send call. *sendgrid.Client satisfies it.
type Mailer interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SubmitResult struct {
	Lead *models.Lead
	// Duplicate is set when the same kind, email and event were already captured.
	Duplicate bool
}

type LeadService interface {
	Submit(ctx context.Context, lead *models.Lead) (*SubmitResult, error)
}

type leadService struct {
	cfg    *config.Config
	repo   repositories.LeadRepository
	mailer Mailer
}

// NewLeadService builds the service. A nil mailer stores leads without
// sending any email.
func NewLeadService(cfg *config.Config, repo repositories.LeadRepository, mailer Mailer) LeadService {
	return &leadService{cfg: cfg, repo: repo, mailer: mailer}
}

func (s *leadService) Submit(ctx context.Context, lead *models.Lead) (*SubmitResult, error) {
	kind := string(lead.Kind)
	lead.Email = utils.NormalizeEmail(lead.Email)
	log := utils.Logger.WithFields(logrus.Fields{"kind": kind, "email": lead.Email})

	//-----------------------------------------------------------------
	// 1) Deliverability / syntax check
	//-----------------------------------------------------------------
	ok, err := utils.ValidateEmail(ctx, s.cfg.SendgridAPIKey, lead.Email, s.cfg.LDFlag_CheckEmailMX, s.cfg.LDFlag_ValidateEmailWithSG)
	if err != nil {
		leadSubmissionsTotal.WithLabelValues(kind, resultFailed).Inc()
		return nil, &utils.AppError{
			StatusCode: http.StatusBadGateway,
			Code:       utils.ErrCodeExternalServiceFailure,
			Message:    "Could not validate email right now, please try again",
			Err:        err,
		}
	}
	if !ok {
		leadSubmissionsTotal.WithLabelValues(kind, resultInvalidEmail).Inc()
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidEmail,
			Message:    "Email address is invalid or undeliverable",
			Err:        utils.ErrInvalidEmail,
		}
	}

	//-----------------------------------------------------------------
	// 2) Persist; a repeat submission is acknowledged but not re-mailed
	//-----------------------------------------------------------------
	lead.ID = uuid.New()
	if err := s.repo.Create(ctx, lead); err != nil {
		if errors.Is(err, utils.ErrDuplicateLead) {
			leadSubmissionsTotal.WithLabelValues(kind, resultDuplicate).Inc()
			log.Info("Duplicate lead submission")
			return &SubmitResult{Lead: lead, Duplicate: true}, nil
		}
		leadSubmissionsTotal.WithLabelValues(kind, resultFailed).Inc()
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Could not save your submission",
			Err:        err,
		}
	}
	leadSubmissionsTotal.WithLabelValues(kind, resultStored).Inc()
	log.WithField("lead_id", lead.ID).Info("Lead stored")

	//-----------------------------------------------------------------
	// 3) Emails (best effort once the lead is stored)
	//-----------------------------------------------------------------
	if s.mailer == nil {
		return &SubmitResult{Lead: lead}, nil
	}
	if err := s.sendInternal(ctx, lead); err != nil {
		log.WithError(err).Warn("Internal lead notification failed")
	}
	if err := s.sendAck(ctx, lead); err != nil {
		log.WithError(err).Warn("Lead acknowledgement email failed")
	}
	return &SubmitResult{Lead: lead}, nil
}

func (s *leadService) sendInternal(ctx context.Context, l *models.Lead) error {
	from := mail.NewEmail(s.cfg.OrganizationName+" Leads-Bot", s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(s.cfg.OrganizationName+" Team", s.cfg.TeamInboxEmail)

	subject := fmt.Sprintf("[Lead][%s] %s", l.Kind, l.Email)
	plainTextContent := fmt.Sprintf(
		"A new %s lead was submitted.\n\nEmail: %s\nName: %s\nOrganization: %s\nEvent: %s\nMessage: %s",
		l.Kind, l.Email, l.FullName, utils.Val(l.Organization), l.EventSlug, utils.Val(l.Message),
	)
	htmlContent := fmt.Sprintf(
		internalNotificationEmailHTML,
		l.Kind,
		html.EscapeString(l.Email),
		html.EscapeString(l.FullName),
		html.EscapeString(utils.Val(l.Organization)),
		html.EscapeString(l.EventSlug),
		html.EscapeString(utils.Val(l.Message)),
		time.Now().UTC().Format(time.RFC1123Z),
	)

	return s.send(ctx, mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent))
}

func (s *leadService) sendAck(ctx context.Context, l *models.Lead) error {
	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(l.FullName, l.Email)

	var subject, body string
	switch l.Kind {
	case models.LeadKindPartnership:
		subject = fmt.Sprintf("Thanks for your interest in partnering with %s", s.cfg.OrganizationName)
		body = "We received your partnership enquiry. A member of our team will be in touch shortly to discuss next steps."
	case models.LeadKindEventRegistration:
		subject = fmt.Sprintf("You're registered for %s", l.EventSlug)
		body = fmt.Sprintf("Your spot for %s is confirmed. We'll send event details closer to the date.", l.EventSlug)
	default:
		subject = fmt.Sprintf("You're on the %s waitlist", s.cfg.OrganizationName)
		body = "Thanks for joining the waitlist. We'll let you know as soon as there's news."
	}

	greeting := ""
	if l.FullName != "" {
		greeting = " " + l.FullName
	}
	plainTextContent := fmt.Sprintf("Hello%s,\n\n%s\n\nThe %s team", greeting, body, s.cfg.OrganizationName)
	htmlContent := fmt.Sprintf(ackEmailHTML,
		html.EscapeString(subject), html.EscapeString(greeting), html.EscapeString(body),
		time.Now().Year(), s.cfg.OrganizationName,
	)

	return s.send(ctx, mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent))
}

func (s *leadService) send(ctx context.Context, msg *mail.SGMailV3) error {
	resp, err := s.mailer.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, resp.StatusCode)
	}
	return nil
}
