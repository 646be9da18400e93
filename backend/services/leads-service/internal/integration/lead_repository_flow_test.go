//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/config"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/controllers"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/routes"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/services"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-testhelpers"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

func TestEventRegistrationPersistsOnce(t *testing.T) {
	utils.InitLogger(config.AppName)
	h := testhelpers.NewTestHelper(t, config.AppName, "", "")

	cfg := &config.Config{OrganizationName: "TechCircle", LDFlag_SendgridFromEmail: config.DefaultFromEmail}
	mailer := &testhelpers.FakeMailer{}
	ctrl := controllers.NewLeadController(services.NewLeadService(cfg, h.LeadRepo, mailer))
	router := mux.NewRouter()
	router.HandleFunc(routes.LeadsEventRegistration, ctrl.SubmitEventRegistration).Methods(http.MethodPost)

	email := h.UniqueEmail("event")
	body := map[string]string{"email": email, "full_name": "Integration Attendee", "event_slug": "meetup-1"}

	for i := 0; i < 2; i++ {
		rr := testhelpers.ServeJSON(t, router, http.MethodPost, routes.LeadsEventRegistration, body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	l, err := h.LeadRepo.Get(context.Background(), models.LeadKindEventRegistration, email, "meetup-1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Integration Attendee", l.FullName)
	assert.Len(t, mailer.Sent(), 2, "only the first registration sends mail")
}
