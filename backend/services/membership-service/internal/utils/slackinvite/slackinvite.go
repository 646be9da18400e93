package slackinvite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const defaultBaseDelay = time.Second

// ErrAlreadyMember is returned when Slack reports the address as already
// invited or already in the workspace.
var ErrAlreadyMember = errors.New("slack: already invited or in team")

// teamInviter is the one Slack admin call we need. *slack.Client satisfies it.
type teamInviter interface {
	InviteToTeamContext(ctx context.Context, teamName, firstName, lastName, emailAddress string) error
}

// Client sends workspace invitations, retrying only when Slack rate-limits us.
type Client struct {
	inviter     teamInviter
	teamName    string
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient builds a Client on top of slack-go. apiURL overrides the Slack
// Web API base and is empty in production.
func NewClient(token, teamName, apiURL string, maxAttempts int) *Client {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return NewClientWithInviter(slack.New(token, opts...), teamName, maxAttempts, defaultBaseDelay)
}

func NewClientWithInviter(inviter teamInviter, teamName string, maxAttempts int, baseDelay time.Duration) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{inviter: inviter, teamName: teamName, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Invite invites email to the workspace under the given display name.
func (c *Client) Invite(ctx context.Context, email, name string) error {
	first, last := splitName(name)
	err := c.doWithRetry(ctx, func() error {
		return c.inviter.InviteToTeamContext(ctx, c.teamName, first, last, email)
	})
	if err != nil && isAlreadyMember(err) {
		return fmt.Errorf("%w: %v", ErrAlreadyMember, err)
	}
	return err
}

// doWithRetry retries fn while Slack answers with a rate limit, honouring
// Retry-After when it is given.
func (c *Client) doWithRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < c.maxAttempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		var rl *slack.RateLimitedError
		if !errors.As(err, &rl) || i == c.maxAttempts-1 {
			return err
		}

		delay := rl.RetryAfter
		if delay <= 0 {
			delay = c.baseDelay * (1 << i)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("after %d attempts, last error: %w", i+1, err)
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("after %d retries, last error: %w", c.maxAttempts, err)
}

func isAlreadyMember(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already_invited") || strings.Contains(msg, "already_in_team")
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
