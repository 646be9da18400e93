package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/config"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/routes"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/services"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-testhelpers"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

func newRouter(t *testing.T) (*mux.Router, *testhelpers.MemoryLeadRepository, *testhelpers.FakeMailer) {
	t.Helper()
	cfg := &config.Config{
		OrganizationName:         "TechCircle",
		TeamInboxEmail:           "team@techcircle.ng",
		LDFlag_SendgridFromEmail: config.DefaultFromEmail,
	}
	repo := testhelpers.NewMemoryLeadRepository()
	mailer := &testhelpers.FakeMailer{}
	ctrl := NewLeadController(services.NewLeadService(cfg, repo, mailer))

	r := mux.NewRouter()
	r.HandleFunc(routes.LeadsWaitlist, ctrl.SubmitWaitlist).Methods(http.MethodPost)
	r.HandleFunc(routes.LeadsPartnership, ctrl.SubmitPartnership).Methods(http.MethodPost)
	r.HandleFunc(routes.LeadsEventRegistration, ctrl.SubmitEventRegistration).Methods(http.MethodPost)
	return r, repo, mailer
}

func TestLeadEndpoints(t *testing.T) {
	t.Run("Waitlist", func(t *testing.T) {
		r, repo, mailer := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsWaitlist, map[string]string{"email": "wait@example.com"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, msgReceived, testhelpers.DecodeJSON(t, rr)["message"])
		assert.Equal(t, 1, repo.Count())
		assert.Len(t, mailer.Sent(), 2)

		rr = testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsWaitlist, map[string]string{"email": "wait@example.com"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, msgDuplicate, testhelpers.DecodeJSON(t, rr)["message"])
		assert.Len(t, mailer.Sent(), 2)
	})

	t.Run("Partnership", func(t *testing.T) {
		r, repo, _ := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsPartnership, map[string]string{
			"email":        "p@example.com",
			"full_name":    "Pat Partner",
			"organization": "Acme",
			"message":      "Let's talk",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		l, err := repo.Get(context.Background(), models.LeadKindPartnership, "p@example.com", "")
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.Equal(t, "Acme", utils.Val(l.Organization))
		assert.Equal(t, "Let's talk", utils.Val(l.Message))
	})

	t.Run("PartnershipMissingOrganization", func(t *testing.T) {
		r, repo, _ := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsPartnership, map[string]string{
			"email":     "p@example.com",
			"full_name": "Pat Partner",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := testhelpers.DecodeJSON(t, rr)
		assert.Equal(t, utils.ErrCodeValidation, body["code"])
		assert.Equal(t, "required", body["details"].(map[string]any)["Organization"])
		assert.Zero(t, repo.Count())
	})

	t.Run("EventRegistration", func(t *testing.T) {
		r, repo, _ := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsEventRegistration, map[string]string{
			"email":      "e@example.com",
			"full_name":  "Eve Attendee",
			"event_slug": "DevFest-Lagos",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		l, err := repo.Get(context.Background(), models.LeadKindEventRegistration, "e@example.com", "devfest-lagos")
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("MalformedEmail", func(t *testing.T) {
		r, _, _ := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsWaitlist, map[string]string{"email": "nope"})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, utils.ErrCodeValidation, testhelpers.DecodeJSON(t, rr)["code"])
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		r, _, _ := newRouter(t)
		rr := testhelpers.ServeJSON(t, r, http.MethodPost, routes.LeadsWaitlist, []byte("{"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, utils.ErrCodeInvalidPayload, testhelpers.DecodeJSON(t, rr)["code"])
	})
}
