package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	SendgridAPIKey   string
	TeamInboxEmail   string

	UniqueRunNumber string
	UniqueRunnerID  string

	// Feature-flag snapshots
	LDFlag_SendgridFromEmail   string
	LDFlag_ValidateEmailWithSG bool
	LDFlag_CheckEmailMX        bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_UsingIsolatedSchema bool
}

const (
	OrganizationName = utils.OrganizationName
	DefaultFromEmail = "no-reply@techcircle.ng"
)

// build-time overrides, set with -ldflags
var (
	AppName             = "leads-service"
	UniqueRunNumber     = "0"
	UniqueRunnerID      = "local"
	LDServerContextKey  = "leads-service"
	LDServerContextKind = "service"
)

type envSpec struct {
	Env            string `envconfig:"ENV" default:"dev"`
	AppPort        string `envconfig:"APP_PORT" default:"8081"`
	AppURL         string `envconfig:"APP_URL_FROM_ANYWHERE" default:"http://localhost:3000"`
	DBURL          string `envconfig:"DB_URL" required:"true"`
	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	TeamInboxEmail string `envconfig:"TEAM_INBOX_EMAIL"`
	LDSDKKey       string `envconfig:"LD_SDK_KEY"`
}

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
	// 1) Optional .env, then Bitwarden
	//----------------------------------------------------------------------
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	env := utils.FirstNonEmpty(os.Getenv("ENV"), "dev")
	if err := utils.LoadBWSSecretsIntoEnv(
		fmt.Sprintf("%s-%s", AppName, env),
		fmt.Sprintf("shared-%s", env),
	); err != nil {
		return nil, fmt.Errorf("load bitwarden secrets: %w", err)
	}

	//----------------------------------------------------------------------
	// 2) Bind environment
	//----------------------------------------------------------------------
	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.DBURL) == "" {
		return nil, errors.New("DB_URL env var is missing")
	}
	if spec.SendgridAPIKey == "" {
		utils.Logger.Warn("SENDGRID_API_KEY not set; leads are stored but no emails are sent")
	}

	//----------------------------------------------------------------------
	// 3) LaunchDarkly flags
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
		SendgridAPIKey:             spec.SendgridAPIKey,
		TeamInboxEmail:             utils.FirstNonEmpty(spec.TeamInboxEmail, utils.OrganizationTeamEmail),
		UniqueRunNumber:            UniqueRunNumber,
		UniqueRunnerID:             UniqueRunnerID,
		LDFlag_SendgridFromEmail:   flags.String("sendgrid_from_email", DefaultFromEmail),
		LDFlag_ValidateEmailWithSG: flags.Bool("validate_email_with_sendgrid", false),
		LDFlag_CheckEmailMX:        flags.Bool("check_email_mx", true),
		LDFlag_CORSHighSecurity:    flags.Bool("cors_high_security", false),
		LDFlag_UsingIsolatedSchema: flags.Bool("using_isolated_schema", false),
	}, nil
}

func (c *Config) Close() {
}
