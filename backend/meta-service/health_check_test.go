package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/techcircle/community-site/backend/shared/go-testhelpers"
)

func TestHealthHandler(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client := up.Client()

	rr := testhelpers.ServeJSON(t, newHealthHandler(client, []string{up.URL}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", testhelpers.DecodeJSON(t, rr)["status"])

	rr = testhelpers.ServeJSON(t, newHealthHandler(client, []string{up.URL, down.URL}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := testhelpers.DecodeJSON(t, rr)
	services := body["services"].([]any)
	assert.Len(t, services, 2)
	assert.Equal(t, true, services[0].(map[string]any)["healthy"])
	assert.Equal(t, false, services[1].(map[string]any)["healthy"])
}
