package controllers

import (
	"context"
	"net/http"

	"github.com/techcircle/community-site/backend/services/membership-service/internal/dtos"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if c.db == nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeConfiguration, "Database not configured", nil)
		return
	}
	if err := c.db.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK"})
}
