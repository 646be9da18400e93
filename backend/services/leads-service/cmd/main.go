package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"

	"github.com/techcircle/community-site/backend/services/leads-service/internal/app"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/config"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/controllers"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/routes"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/services"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()
	defer cfg.Close()

	// 2) Core application (DB)
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize leads-service:", err)
	}
	defer application.Close()

	// 3) Services
	var mailer services.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	leadSvc := services.NewLeadService(cfg, repositories.NewLeadRepository(application.DB), mailer)

	// 4) Controllers
	healthCtrl := controllers.NewHealthController(application.DB)
	leadCtrl := controllers.NewLeadController(leadSvc)

	// 5) Router
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthCtrl.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc(routes.LeadsWaitlist, leadCtrl.SubmitWaitlist).Methods(http.MethodPost)
	router.HandleFunc(routes.LeadsPartnership, leadCtrl.SubmitPartnership).Methods(http.MethodPost)
	router.HandleFunc(routes.LeadsEventRegistration, leadCtrl.SubmitEventRegistration).Methods(http.MethodPost)

	// 6) CORS
	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on :%s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, c.Handler(router)); err != nil {
		utils.Logger.Fatal("Server error:", err)
	}
}
