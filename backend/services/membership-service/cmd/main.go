package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/app"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/config"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/constants"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/controllers"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/routes"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/services"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/paystack"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/slackinvite"
	"github.com/techcircle/community-site/backend/services/membership-service/internal/utils/stripegw"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize membership-service:", err)
	}
	defer application.Close()

	// Repositories
	memberRepo := repositories.NewMemberRepository(application.DB)

	// Adapters
	gateway := newPaymentGateway(cfg)

	var inviter services.SlackInviter
	if cfg.SlackConfigured() {
		inviter = slackinvite.NewClient(cfg.SlackAdminToken, cfg.SlackTeamName, cfg.SlackAPIURL, constants.SlackInviteMaxAttempts)
	} else {
		utils.Logger.Warn("Slack invitations disabled; SLACK_ADMIN_TOKEN/SLACK_TEAM_NAME missing or flag off")
	}

	var mailer services.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	} else {
		utils.Logger.Warn("SENDGRID_API_KEY not set; welcome emails disabled")
	}

	// Services
	reconciler := services.NewReconciliationService(memberRepo)
	invitations := services.NewInvitationService(inviter, memberRepo)
	welcome := services.NewWelcomeEmailService(cfg, mailer)
	paymentService := services.NewPaymentService(gateway, reconciler, invitations, welcome)

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	paymentController := controllers.NewPaymentController(cfg, paymentService)

	// Router setup
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc(routes.MembershipPaymentVerify, paymentController.VerifyPaymentHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MembershipPaymentWebhook, paymentController.WebhookHandler).Methods(http.MethodPost)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
	})

	server := &http.Server{Addr: ":" + cfg.AppPort, Handler: co.Handler(router)}
	go func() {
		utils.Logger.Infof("Starting %s on port: %s (provider=%s)", cfg.AppName, cfg.AppPort, cfg.PaymentProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("membership-service failed to start:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	// Let in-flight Slack invites and welcome emails finish.
	paymentService.Wait()
	utils.Logger.Info("membership-service stopped")
}

const shutdownTimeout = 15 * time.Second

// newPaymentGateway picks the adapter for cfg.PaymentProvider. Missing keys
// still yield a gateway; it answers every call with ErrProviderNotConfigured.
func newPaymentGateway(cfg *config.Config) services.PaymentGateway {
	switch cfg.PaymentProvider {
	case models.PaymentProviderStripe:
		return stripegw.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.HomeCurrency)
	default:
		client, err := paystack.NewClient(
			cfg.PaystackSecretKey,
			cfg.PaystackBaseURL,
			constants.ProviderRequestTimeout,
			constants.ProviderMaxAttempts-1,
			constants.ProviderInitialBackoff,
		)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Invalid Paystack configuration")
		}
		return paystack.NewGateway(client, cfg.HomeCurrency)
	}
}
