package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/config"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/routes"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/services"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/paystack"
	"github.com/techcircle/community-site/backend/shared/go-testhelpers"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const testSecret = "sk_test_controller"

type stack struct {
	router *mux.Router
	repo   *testhelpers.MemoryMemberRepository
}

// newStack wires the real services around an in-memory store and a fake
// Paystack API that answers every verify with verify(reference).
func newStack(t *testing.T, verify func(reference string) (int, []byte)) *stack {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, body := verify(r.URL.Path[len("/transaction/verify/"):])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	client, err := paystack.NewClient(testSecret, srv.URL, 5*time.Second, 1, time.Millisecond)
	require.NoError(t, err)

	cfg := &config.Config{
		OrganizationName: "TechCircle",
		SupportEmail:     "support@techcircle.ng",
		HomeCurrency:     "NGN",
	}
	repo := testhelpers.NewMemoryMemberRepository()
	paymentSvc := services.NewPaymentService(
		paystack.NewGateway(client, cfg.HomeCurrency),
		services.NewReconciliationService(repo),
		services.NewInvitationService(nil, repo),
		services.NewWelcomeEmailService(cfg, nil),
	)
	t.Cleanup(paymentSvc.Wait)

	ctrl := NewPaymentController(cfg, paymentSvc)
	r := mux.NewRouter()
	r.HandleFunc(routes.MembershipPaymentVerify, ctrl.VerifyPaymentHandler).Methods(http.MethodGet)
	r.HandleFunc(routes.MembershipPaymentWebhook, ctrl.WebhookHandler).Methods(http.MethodPost)
	return &stack{router: r, repo: repo}
}

func okVerify(t *testing.T, c testhelpers.PaystackCharge) func(string) (int, []byte) {
	return func(string) (int, []byte) {
		return http.StatusOK, testhelpers.MockPaystackVerifyResponse(t, c)
	}
}

func TestVerifyPaymentHandler_Success(t *testing.T) {
	s := newStack(t, okVerify(t, testhelpers.PaystackCharge{
		Reference: "ref_ctrl_ok",
		Email:     "member@example.com",
		FirstName: "Sade",
		Amount:    2000000,
		Status:    "success",
	}))

	rr := testhelpers.ServeJSON(t, s.router, http.MethodGet, routes.MembershipPaymentVerify+"?reference=ref_ctrl_ok", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := testhelpers.DecodeJSON(t, rr)
	assert.Equal(t, true, body["success"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "ref_ctrl_ok", tx["reference"])
	assert.InDelta(t, 20000.0, tx["amount"], 0.0001)
	assert.Equal(t, "NGN", tx["currency"])
	assert.Equal(t, "success", tx["status"])
	assert.Equal(t, "member@example.com", tx["email"])
	assert.Equal(t, "Sade", tx["name"])
	assert.Equal(t, 1, s.repo.Count())
}

func TestVerifyPaymentHandler_Errors(t *testing.T) {
	t.Run("MissingReference", func(t *testing.T) {
		s := newStack(t, func(string) (int, []byte) {
			t.Fatal("provider must not be called")
			return 0, nil
		})
		rr := testhelpers.ServeJSON(t, s.router, http.MethodGet, routes.MembershipPaymentVerify, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, utils.ErrCodeMissingReference, testhelpers.DecodeJSON(t, rr)["code"])
	})

	t.Run("NotSuccessful", func(t *testing.T) {
		s := newStack(t, okVerify(t, testhelpers.PaystackCharge{
			Reference:       "ref_failed",
			Email:           "member@example.com",
			Amount:          100,
			Status:          "failed",
			GatewayResponse: "Declined",
		}))
		rr := testhelpers.ServeJSON(t, s.router, http.MethodGet, routes.MembershipPaymentVerify+"?reference=ref_failed", nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := testhelpers.DecodeJSON(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Declined", body["message"])
		assert.Zero(t, s.repo.Mutations())
	})

	t.Run("ProviderRejects", func(t *testing.T) {
		s := newStack(t, func(string) (int, []byte) {
			return http.StatusBadRequest, []byte(`{"status":false,"message":"Transaction reference not found"}`)
		})
		rr := testhelpers.ServeJSON(t, s.router, http.MethodGet, routes.MembershipPaymentVerify+"?reference=nope", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, utils.ErrCodeProviderFailure, testhelpers.DecodeJSON(t, rr)["code"])
	})

	t.Run("RegistrationFailed", func(t *testing.T) {
		s := newStack(t, okVerify(t, testhelpers.PaystackCharge{
			Reference: "ref_db_down",
			Email:     "member@example.com",
			Amount:    100,
			Status:    "success",
		}))
		s.repo.CreateErr = errors.New("db down")

		rr := testhelpers.ServeJSON(t, s.router, http.MethodGet, routes.MembershipPaymentVerify+"?reference=ref_db_down", nil)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := testhelpers.DecodeJSON(t, rr)
		assert.Equal(t, utils.ErrCodeRegistrationFailed, body["code"])
		assert.Contains(t, body["message"], "support@techcircle.ng")
		assert.Contains(t, body["message"], "ref_db_down")
	})
}

func TestWebhookHandler(t *testing.T) {
	charge := testhelpers.PaystackCharge{
		Reference: "ref_wh",
		Email:     "webhook@example.com",
		FirstName: "Web",
		LastName:  "Hook",
		Amount:    1500000,
		Currency:  "NGN",
		Status:    "success",
	}
	noVerify := func(string) (int, []byte) { return http.StatusInternalServerError, nil }

	t.Run("Accepted", func(t *testing.T) {
		s := newStack(t, noVerify)
		payload := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)
		req := testhelpers.NewPaystackWebhookRequest(t, routes.MembershipPaymentWebhook, testSecret, payload)

		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, true, testhelpers.DecodeJSON(t, rr)["received"])
		assert.Equal(t, 1, s.repo.Count())
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		s := newStack(t, noVerify)
		payload := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)
		req := testhelpers.NewPaystackWebhookRequest(t, routes.MembershipPaymentWebhook, "not-the-secret", payload)

		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid signature", testhelpers.DecodeJSON(t, rr)["message"])
		assert.Zero(t, s.repo.Mutations())
	})

	t.Run("MalformedAfterValidSignature", func(t *testing.T) {
		s := newStack(t, noVerify)
		payload := []byte(`{"event": "charge.success", "data": `)
		req := testhelpers.NewPaystackWebhookRequest(t, routes.MembershipPaymentWebhook, testSecret, payload)

		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("ReconciliationFailed", func(t *testing.T) {
		s := newStack(t, noVerify)
		s.repo.FindErr = errors.New("db down")
		payload := testhelpers.MockPaystackWebhookPayload(t, paystack.EventChargeSuccess, charge)
		req := testhelpers.NewPaystackWebhookRequest(t, routes.MembershipPaymentWebhook, testSecret, payload)

		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, utils.ErrCodeReconciliationFailed, testhelpers.DecodeJSON(t, rr)["code"])
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		s := newStack(t, noVerify)
		big := bytes.Repeat([]byte("a"), 2<<20)
		req := httptest.NewRequest(http.MethodPost, routes.MembershipPaymentWebhook, bytes.NewReader(big))

		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
