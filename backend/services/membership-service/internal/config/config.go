package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	HomeCurrency     string
	SupportEmail     string

	PaymentProvider     string
	PaystackSecretKey   string
	PaystackBaseURL     string
	StripeSecretKey     string
	StripeWebhookSecret string

	SlackAdminToken string
	SlackTeamName   string
	SlackAPIURL     string

	SendgridAPIKey string

	UniqueRunNumber string
	UniqueRunnerID  string

	// Feature-flag snapshots
	LDFlag_SlackInvitesEnabled bool
	LDFlag_SendgridFromEmail   string
	LDFlag_CORSHighSecurity    bool
	LDFlag_UsingIsolatedSchema bool
}

const (
	OrganizationName = utils.OrganizationName
	DefaultFromEmail = "no-reply@techcircle.ng"
)

// build-time overrides, set with -ldflags. The defaults let `go run` work
// against a local .env.
var (
	AppName             = "membership-service"
	UniqueRunNumber     = "0"
	UniqueRunnerID      = "local"
	LDServerContextKey  = "membership-service"
	LDServerContextKind = "service"
)

// envSpec is what envconfig binds from the process environment once .env
// and Bitwarden have been applied.
type envSpec struct {
	Env          string `envconfig:"ENV" default:"dev"`
	AppPort      string `envconfig:"APP_PORT" default:"8080"`
	AppURL       string `envconfig:"APP_URL_FROM_ANYWHERE" default:"http://localhost:3000"`
	DBURL        string `envconfig:"DB_URL" required:"true"`
	HomeCurrency string `envconfig:"HOME_CURRENCY" default:"NGN"`
	SupportEmail string `envconfig:"SUPPORT_EMAIL" default:"team@techcircle.ng"`

	PaymentProvider     string `envconfig:"PAYMENT_PROVIDER" default:"paystack"`
	PaystackSecretKey   string `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL     string `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	SlackAdminToken string `envconfig:"SLACK_ADMIN_TOKEN"`
	SlackTeamName   string `envconfig:"SLACK_TEAM_NAME"`
	SlackAPIURL     string `envconfig:"SLACK_API_URL"`

	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	LDSDKKey       string `envconfig:"LD_SDK_KEY"`
}

// LoadConfig builds the service configuration or exits. Missing required
// values are operator errors and are fatal at startup.
func LoadConfig() *Config {
	if AppName == "" {
		utils.Logger.Fatal("AppName was not provided via ldflags")
	}
	if LDServerContextKey == "" || LDServerContextKind == "" {
		utils.Logger.Fatal("LD context ldflags missing")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	cfg, err := loadFromEnv()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load config")
	}

	utils.Logger.Infof("Loaded config for %s (%s)", cfg.AppName, cfg.Env)
	return cfg
}

func loadFromEnv() (*Config, error) {
	//----------------------------------------------------------------------
	// 1) Optional .env for local runs
	//----------------------------------------------------------------------
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	//----------------------------------------------------------------------
	// 2) Bitwarden overlay (app-env first, then shared-env)
	//----------------------------------------------------------------------
	env := utils.FirstNonEmpty(os.Getenv("ENV"), "dev")
	if err := utils.LoadBWSSecretsIntoEnv(
		fmt.Sprintf("%s-%s", AppName, env),
		fmt.Sprintf("shared-%s", env),
	); err != nil {
		return nil, fmt.Errorf("load bitwarden secrets: %w", err)
	}

	//----------------------------------------------------------------------
	// 3) Bind environment
	//----------------------------------------------------------------------
	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		return nil, err
	}

	if strings.TrimSpace(spec.DBURL) == "" {
		return nil, errors.New("DB_URL env var is missing")
	}

	provider := strings.ToLower(strings.TrimSpace(utils.FirstNonEmpty(spec.PaymentProvider, models.PaymentProviderPaystack)))
	switch provider {
	case models.PaymentProviderPaystack:
		if spec.PaystackSecretKey == "" {
			utils.Logger.Warn("PAYSTACK_SECRET_KEY not set; payment endpoints will answer with a configuration error")
		}
	case models.PaymentProviderStripe:
		if spec.StripeSecretKey == "" || spec.StripeWebhookSecret == "" {
			utils.Logger.Warn("Stripe keys not set; payment endpoints will answer with a configuration error")
		}
	default:
		return nil, fmt.Errorf("unsupported PAYMENT_PROVIDER %q", spec.PaymentProvider)
	}

	//----------------------------------------------------------------------
	// 4) LaunchDarkly flags
	//----------------------------------------------------------------------
	flags, err := utils.NewFeatureFlags(spec.LDSDKKey, LDServerContextKind, LDServerContextKey)
	if err != nil {
		return nil, fmt.Errorf("launchdarkly: %w", err)
	}
	defer flags.Close()

	return &Config{
		OrganizationName:           OrganizationName,
		AppName:                    AppName,
		Env:                        spec.Env,
		AppPort:                    spec.AppPort,
		AppUrl:                     spec.AppURL,
		DBUrl:                      spec.DBURL,
		HomeCurrency:               strings.ToUpper(spec.HomeCurrency),
		SupportEmail:               spec.SupportEmail,
		PaymentProvider:            provider,
		PaystackSecretKey:          spec.PaystackSecretKey,
		PaystackBaseURL:            strings.TrimRight(spec.PaystackBaseURL, "/"),
		StripeSecretKey:            spec.StripeSecretKey,
		StripeWebhookSecret:        spec.StripeWebhookSecret,
		SlackAdminToken:            spec.SlackAdminToken,
		SlackTeamName:              spec.SlackTeamName,
		SlackAPIURL:                spec.SlackAPIURL,
		SendgridAPIKey:             spec.SendgridAPIKey,
		UniqueRunNumber:            UniqueRunNumber,
		UniqueRunnerID:             UniqueRunnerID,
		LDFlag_SlackInvitesEnabled: flags.Bool("slack_invites_enabled", true),
		LDFlag_SendgridFromEmail:   flags.String("sendgrid_from_email", DefaultFromEmail),
		LDFlag_CORSHighSecurity:    flags.Bool("cors_high_security", false),
		LDFlag_UsingIsolatedSchema: flags.Bool("using_isolated_schema", false),
	}, nil
}

// SlackConfigured reports whether invitations can be attempted at all.
func (c *Config) SlackConfigured() bool {
	return c.LDFlag_SlackInvitesEnabled && c.SlackAdminToken != "" && c.SlackTeamName != ""
}

func (c *Config) Close() {}
