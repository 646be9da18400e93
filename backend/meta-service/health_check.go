package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const appName = "meta-service"

type metaConfig struct {
	Port    string        `envconfig:"APP_PORT" default:"8079"`
	Targets []string      `envconfig:"HEALTH_TARGETS" default:"http://localhost:8080/health,http://localhost:8081/health"`
	Timeout time.Duration `envconfig:"HEALTH_TIMEOUT" default:"2s"`
}

type targetStatus struct {
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Services []targetStatus `json:"services"`
}

func main() {
	utils.InitLogger(appName)

	var cfg metaConfig
	if err := envconfig.Process("", &cfg); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load config")
	}

	router := mux.NewRouter()
	router.Handle("/health", newHealthHandler(&http.Client{Timeout: cfg.Timeout}, cfg.Targets)).Methods(http.MethodGet)

	utils.Logger.Infof("Starting health check service on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		utils.Logger.Fatal("meta-service failed to start:", err)
	}
}

func newHealthHandler(client *http.Client, targets []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := checkAll(r.Context(), client, targets)

		resp := healthResponse{Status: "OK", Services: statuses}
		code := http.StatusOK
		for _, s := range statuses {
			if !s.Healthy {
				resp.Status = "Unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}
		utils.RespondWithJSON(w, code, resp)
	}
}

// checkAll probes every target concurrently. Results keep target order.
func checkAll(ctx context.Context, client *http.Client, targets []string) []targetStatus {
	out := make([]targetStatus, len(targets))
	var wg sync.WaitGroup
	for i, url := range targets {
		url = strings.TrimSpace(url)
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			out[i] = probe(ctx, client, u)
		}(i, url)
	}
	wg.Wait()
	return out
}

func probe(ctx context.Context, client *http.Client, url string) targetStatus {
	st := targetStatus{URL: url}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	resp, err := client.Do(req)
	if err != nil {
		st.Error = err.Error()
		utils.Logger.WithError(err).Warnf("(Health Check) Service unreachable: %s", url)
		return st
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		st.Error = resp.Status
		utils.Logger.Warnf("(Health Check) Service unhealthy: %s (%s)", url, resp.Status)
		return st
	}
	st.Healthy = true
	return st
}
