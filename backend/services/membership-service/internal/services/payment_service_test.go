package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/paystack"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/slackinvite"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-testhelpers"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const testPaystackSecret = "sk_test_membership"

type fakeGateway struct {
	event *models.PaymentEvent
	err   error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*models.PaymentEvent, error) {
	if g.err != nil {
		return nil, g.err
	}
	c := *g.event
	return &c, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, _ http.Header) (*models.WebhookNotification, error) {
	return nil, errors.New("not used")
}

type paymentFixture struct {
	repo    *testhelpers.MemoryMemberRepository
	inviter *testhelpers.FakeTeamInviter
	mailer  *testhelpers.FakeMailer
}

func newPaymentService(t *testing.T, gw PaymentGateway) (PaymentService, *paymentFixture) {
	t.Helper()
	f := &paymentFixture{
		repo:    testhelpers.NewMemoryMemberRepository(),
		inviter: &testhelpers.FakeTeamInviter{},
		mailer:  &testhelpers.FakeMailer{},
	}
	svc := NewPaymentService(
		gw,
		NewReconciliationService(f.repo),
		NewInvitationService(slackinvite.NewClientWithInviter(f.inviter, "techcircle", 1, 0), f.repo),
		NewWelcomeEmailService(testConfig(), f.mailer),
	)
	t.Cleanup(svc.Wait)
	return svc, f
}

func (f *paymentFixture) invited(t *testing.T, email string) bool {
	t.Helper()
	m, err := f.repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.SlackInvited
}

// blockingTeamInviter holds every invite until release is closed or the
// invite context ends.
type blockingTeamInviter struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
	calls   int
}

func newBlockingTeamInviter() *blockingTeamInviter {
	return &blockingTeamInviter{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingTeamInviter) InviteToTeamContext(ctx context.Context, _, _, _, _ string) error {
	b.calls++
	b.started <- struct{}{}
	select {
	case <-b.release:
		b.ctxErr = ctx.Err()
		return nil
	case <-ctx.Done():
		b.ctxErr = ctx.Err()
		return ctx.Err()
	}
}

// paystackGateway serves every verify call with charge.
func paystackGateway(t *testing.T, charge testhelpers.PaystackCharge) *paystack.Gateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testPaystackSecret, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(testhelpers.MockPaystackVerifyResponse(t, charge))
	}))
	t.Cleanup(srv.Close)

	client, err := paystack.NewClient(testPaystackSecret, srv.URL, 5*time.Second, 1, time.Millisecond)
	require.NoError(t, err)
	return paystack.NewGateway(client, "NGN")
}

func TestVerifyPayment_EndToEnd(t *testing.T) {
	gw := paystackGateway(t, testhelpers.PaystackCharge{
		Reference: "ref_e2e",
		Email:     "Tobi@Example.com",
		FirstName: "Tobi",
		Amount:    2000000,
		Status:    "success",
		Metadata:  map[string]any{"full_name": "Tobi Bakare"},
	})
	svc, f := newPaymentService(t, gw)

	res, err := svc.VerifyPayment(context.Background(), "  ref_e2e ")
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, res.Reconcile.Outcome)
	assert.Equal(t, "NGN", res.Event.Currency)
	assert.InDelta(t, 20000.0, res.Event.AmountMajorUnits(), 0.0001)
	assert.Equal(t, "tobi@example.com", res.Reconcile.Member.Email)
	assert.Equal(t, "Tobi Bakare", res.Reconcile.Member.Name)

	svc.Wait()
	assert.Len(t, f.inviter.Calls(), 1)
	assert.Len(t, f.mailer.Sent(), 1)
	assert.True(t, f.invited(t, "tobi@example.com"))
}

func TestVerifyPayment_ReplayDoesNotResendWelcome(t *testing.T) {
	ev := successEvent("ref_replay", "replay@example.com", "Replay Person", 100)
	svc, f := newPaymentService(t, &fakeGateway{event: &ev})

	_, err := svc.VerifyPayment(context.Background(), "ref_replay")
	require.NoError(t, err)
	svc.Wait()
	res, err := svc.VerifyPayment(context.Background(), "ref_replay")
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, OutcomeAlreadyReconciled, res.Reconcile.Outcome)
	assert.Len(t, f.mailer.Sent(), 1)
	assert.Len(t, f.inviter.Calls(), 1, "invited member is not invited again")
	assert.Equal(t, 1, f.repo.Count())
}

func TestVerifyPayment_ReplayRetriesFailedInvite(t *testing.T) {
	ev := successEvent("ref_retry", "retry@example.com", "Retry Person", 100)
	svc, f := newPaymentService(t, &fakeGateway{event: &ev})
	f.inviter.Errs = []error{errors.New("internal_error")}

	_, err := svc.VerifyPayment(context.Background(), "ref_retry")
	require.NoError(t, err, "invitation failure must not fail the payment")
	svc.Wait()
	assert.False(t, f.invited(t, "retry@example.com"))

	second, err := svc.VerifyPayment(context.Background(), "ref_retry")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyReconciled, second.Reconcile.Outcome)
	svc.Wait()
	assert.True(t, f.invited(t, "retry@example.com"))
	assert.Len(t, f.inviter.Calls(), 2)
}

func TestVerifyPayment_Errors(t *testing.T) {
	t.Run("MissingReference", func(t *testing.T) {
		svc, f := newPaymentService(t, &fakeGateway{})
		_, err := svc.VerifyPayment(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrMissingReference)
		assert.Zero(t, f.repo.Mutations())
	})

	t.Run("NoGateway", func(t *testing.T) {
		svc, _ := newPaymentService(t, nil)
		_, err := svc.VerifyPayment(context.Background(), "ref")
		assert.ErrorIs(t, err, utils.ErrProviderNotConfigured)
	})

	t.Run("NotSuccessful", func(t *testing.T) {
		ev := successEvent("ref_abandoned", "a@example.com", "Abandoned", 100)
		ev.RawStatus = "abandoned"
		ev.GatewayResponse = "The transaction was not completed"
		svc, f := newPaymentService(t, &fakeGateway{event: &ev})

		_, err := svc.VerifyPayment(context.Background(), "ref_abandoned")
		var pns *PaymentNotSuccessfulError
		require.ErrorAs(t, err, &pns)
		assert.Equal(t, "The transaction was not completed", pns.PublicMessage())
		assert.Zero(t, f.repo.Mutations())
		assert.Empty(t, f.inviter.Calls())
	})

	t.Run("ProviderDown", func(t *testing.T) {
		svc, _ := newPaymentService(t, &fakeGateway{err: &utils.ProviderError{Provider: "fake", StatusCode: 502, Message: "bad gateway"}})
		_, err := svc.VerifyPayment(context.Background(), "ref")
		assert.ErrorIs(t, err, utils.ErrProviderCommunication)
	})

	t.Run("ReconcileFails", func(t *testing.T) {
		ev := successEvent("ref_fail", "fail@example.com", "Fail Person", 100)
		svc, f := newPaymentService(t, &fakeGateway{event: &ev})
		f.repo.CreateErr = errors.New("db down")

		_, err := svc.VerifyPayment(context.Background(), "ref_fail")
		assert.ErrorIs(t, err, ErrReconciliationFailed)
		svc.Wait()
		assert.Empty(t, f.inviter.Calls())
		assert.Empty(t, f.mailer.Sent())
	})
}

func TestHandleWebhook(t *testing.T) {
	gw := paystack.NewGateway(&paystack.Client{SecretKey: testPaystackSecret}, "NGN")
	charge := testhelpers.PaystackCharge{
		Reference: "ref_hook",
		Email:     "hook@example.com",
		FirstName: "Hook",
		LastName:  "User",
		Amount:    500000,
		Currency:  "NGN",
		Status:    "success",
	}

	t.Run("ChargeSuccess", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)
		h := http.Header{}
		h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload(testPaystackSecret, body))

		res, err := svc.HandleWebhook(context.Background(), body, h)
		require.NoError(t, err)
		require.NotNil(t, res.Reconcile)
		assert.Equal(t, OutcomeCreated, res.Reconcile.Outcome)
		assert.Equal(t, "Hook", res.Reconcile.Member.Name)
		assert.Equal(t, 1, f.repo.Count())

		// Paystack redelivers; nothing changes.
		svc.Wait()
		mutations := f.repo.Mutations()
		res, err = svc.HandleWebhook(context.Background(), body, h)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyReconciled, res.Reconcile.Outcome)
		assert.Equal(t, mutations, f.repo.Mutations())
	})

	t.Run("BadSignature", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)
		h := http.Header{}
		h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload("wrong-secret", body))

		_, err := svc.HandleWebhook(context.Background(), body, h)
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
		assert.Zero(t, f.repo.Mutations())
		assert.Empty(t, f.inviter.Calls())
	})

	t.Run("MissingSignature", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)

		_, err := svc.HandleWebhook(context.Background(), body, http.Header{})
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
		assert.Zero(t, f.repo.Mutations())
	})

	t.Run("ChargeFailedIsLoggedOnly", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		failed := charge
		failed.Status = "failed"
		failed.Email = ""
		body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeFailed, failed)
		h := http.Header{}
		h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload(testPaystackSecret, body))

		res, err := svc.HandleWebhook(context.Background(), body, h)
		require.NoError(t, err)
		assert.Equal(t, models.WebhookChargeFailed, res.Notification.Kind)
		assert.Nil(t, res.Reconcile)
		assert.Zero(t, f.repo.Mutations())
	})

	t.Run("UnknownEventIgnored", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		body := testhelpers.MockPaystackWebhookPayload(t, "transfer.success", charge)
		h := http.Header{}
		h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload(testPaystackSecret, body))

		res, err := svc.HandleWebhook(context.Background(), body, h)
		require.NoError(t, err)
		assert.Equal(t, models.WebhookUnrecognized, res.Notification.Kind)
		assert.Zero(t, f.repo.Mutations())
	})

	t.Run("SuccessWithoutEmail", func(t *testing.T) {
		svc, f := newPaymentService(t, gw)
		noEmail := charge
		noEmail.Email = ""
		body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, noEmail)
		h := http.Header{}
		h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload(testPaystackSecret, body))

		_, err := svc.HandleWebhook(context.Background(), body, h)
		assert.ErrorIs(t, err, utils.ErrMissingCustomerEmail)
		assert.Zero(t, f.repo.Mutations())
	})
}

func TestHandleWebhook_AcknowledgesBeforeSideChannels(t *testing.T) {
	gw := paystack.NewGateway(&paystack.Client{SecretKey: testPaystackSecret}, "NGN")
	repo := testhelpers.NewMemoryMemberRepository()
	mailer := &testhelpers.FakeMailer{}
	inviter := newBlockingTeamInviter()
	svc := NewPaymentService(
		gw,
		NewReconciliationService(repo),
		NewInvitationService(slackinvite.NewClientWithInviter(inviter, "techcircle", 1, 0), repo),
		NewWelcomeEmailService(testConfig(), mailer),
	)

	body := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, testhelpers.PaystackCharge{
		Reference: "ref_slow_slack",
		Email:     "slow@example.com",
		FirstName: "Slow",
		LastName:  "Slack",
		Amount:    500000,
		Currency:  "NGN",
		Status:    "success",
	})
	h := http.Header{}
	h.Set(paystack.SignatureHeader, testhelpers.SignPaystackPayload(testPaystackSecret, body))

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	res, err := svc.HandleWebhook(ctx, body, h)
	elapsed := time.Since(start)
	cancel()

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Reconcile.Outcome)
	assert.Less(t, elapsed, time.Second, "acknowledgement waited on Slack")

	select {
	case <-inviter.started:
	case <-time.After(5 * time.Second):
		t.Fatal("invitation never started")
	}
	assert.Empty(t, mailer.Sent(), "welcome email runs after the invitation")

	close(inviter.release)
	svc.Wait()

	assert.NoError(t, inviter.ctxErr, "side channels outlive the request context")
	assert.Equal(t, 1, inviter.calls)
	assert.Len(t, mailer.Sent(), 1)
	m, err := repo.GetByEmail(context.Background(), "slow@example.com")
	require.NoError(t, err)
	assert.True(t, m.SlackInvited)
}
