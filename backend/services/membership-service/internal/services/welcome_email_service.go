// membership-service/internal/services/welcome_email_service.go

package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/config"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/constants"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const welcomeEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Welcome to %[1]s</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; margin: 0; padding: 20px; }
  .container { max-width: 520px; margin: auto; background: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; overflow: hidden; }
  .header { background-color: #0f766e; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; text-align: left; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; font-size: 12px; color: #6c757d; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Welcome to %[1]s!</h1>
    </div>
    <div class="content">
      <p>Hi %[2]s,</p>
      <p>Your membership payment (reference <strong>%[3]s</strong>) was received and your membership is now active.</p>
      <p>Keep an eye on your inbox for an invitation to our Slack workspace.</p>
      <p>Questions? Reply to this email or write to %[4]s.</p>
    </div>
    <div class="footer">
      © %[5]d %[1]s. All rights reserved.
    </div>
  </div>
</body>
</html>`

// Mailer is the SendGrid send call. *sendgrid.Client satisfies it.
type Mailer interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type WelcomeEmailService interface {
	SendWelcome(ctx context.Context, m *models.Member) error
}

type welcomeEmailService struct {
	cfg    *config.Config
	mailer Mailer
}

// NewWelcomeEmailService returns a service that does nothing when mailer
// is nil.
func NewWelcomeEmailService(cfg *config.Config, mailer Mailer) WelcomeEmailService {
	return &welcomeEmailService{cfg: cfg, mailer: mailer}
}

func (s *welcomeEmailService) SendWelcome(ctx context.Context, m *models.Member) error {
	if s.mailer == nil {
		welcomeEmailsTotal.WithLabelValues(resultSkipped).Inc()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.WelcomeEmailTimeout)
	defer cancel()

	from := mail.NewEmail(constants.MembershipTeamName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(m.Name, m.Email)
	subject := fmt.Sprintf(constants.EmailSubjectWelcome, s.cfg.OrganizationName)
	plainTextContent := fmt.Sprintf(
		"Hi %s,\n\nYour membership payment (reference %s) was received and your membership is now active.\n"+
			"Keep an eye on your inbox for an invitation to our Slack workspace.\n\nThe %s team",
		m.Name, m.PaymentReference, s.cfg.OrganizationName,
	)
	htmlContent := fmt.Sprintf(welcomeEmailHTML,
		html.EscapeString(s.cfg.OrganizationName),
		html.EscapeString(m.Name),
		html.EscapeString(m.PaymentReference),
		html.EscapeString(s.cfg.SupportEmail),
		time.Now().Year(),
	)

	msg := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	resp, err := s.mailer.SendWithContext(ctx, msg)
	if err == nil && resp != nil && resp.StatusCode >= 300 {
		err = fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, resp.StatusCode)
	}
	if err != nil {
		welcomeEmailsTotal.WithLabelValues(resultFailed).Inc()
		return err
	}
	welcomeEmailsTotal.WithLabelValues(resultOK).Inc()
	return nil
}
