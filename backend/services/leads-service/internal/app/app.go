package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/techcircle/community-site/backend/services/leads-service/internal/config"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App holds the config and the DB pool shared by repositories.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

func NewApp(cfg *config.Config) (*App, error) {
	utils.Logger.Infof("Initializing %s App", cfg.AppName)

	dbURL := cfg.DBUrl
	if cfg.LDFlag_UsingIsolatedSchema {
		var err error
		if dbURL, err = utils.WithIsolatedRole(cfg.DBUrl, cfg.UniqueRunnerID, cfg.UniqueRunNumber); err != nil {
			return nil, err
		}
	}

	var (
		pool    *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err = pgxpool.Connect(ctx, dbURL)
		cancel()
		if err == nil {
			break
		}
		utils.Logger.WithError(err).Warnf("Failed DB connect on attempt %d/%d. Retrying in %v...", i, maxRetries, backoff)
		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := repositories.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &App{Config: cfg, DB: pool}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	utils.Logger.Infof("%s app shutting down.", a.Config.AppName)
}
