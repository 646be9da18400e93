package testhelpers

import (
	"context"
	"net/http"
	"sync"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// FakeMailer records outgoing SendGrid messages instead of sending them.
type FakeMailer struct {
	mu   sync.Mutex
	sent []*mail.SGMailV3

	// Err is returned from every Send when set. StatusCode defaults to 202.
	Err        error
	StatusCode int
}

func (f *FakeMailer) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	return f.Send(m)
}

func (f *FakeMailer) Send(m *mail.SGMailV3) (*rest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.sent = append(f.sent, m)
	code := f.StatusCode
	if code == 0 {
		code = http.StatusAccepted
	}
	return &rest.Response{StatusCode: code}, nil
}

func (f *FakeMailer) Sent() []*mail.SGMailV3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mail.SGMailV3(nil), f.sent...)
}

// InviteCall is one recorded team invitation.
type InviteCall struct {
	TeamName  string
	FirstName string
	LastName  string
	Email     string
}

// FakeTeamInviter stands in for the Slack admin invite call. Errs are
// returned in order, one per call; once exhausted every call succeeds.
type FakeTeamInviter struct {
	mu    sync.Mutex
	calls []InviteCall

	Errs []error
}

func (f *FakeTeamInviter) InviteToTeamContext(_ context.Context, teamName, firstName, lastName, emailAddress string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, InviteCall{TeamName: teamName, FirstName: firstName, LastName: lastName, Email: emailAddress})
	if len(f.Errs) > 0 {
		err := f.Errs[0]
		f.Errs = f.Errs[1:]
		return err
	}
	return nil
}

func (f *FakeTeamInviter) Calls() []InviteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InviteCall(nil), f.calls...)
}
