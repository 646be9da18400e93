// go-repositories/lead_repository.go

package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type LeadRepository interface {
	// Create stores l. A repeat of the same kind, email and event slug
	// returns utils.ErrDuplicateLead.
	Create(ctx context.Context, l *models.Lead) error
	Get(ctx context.Context, kind models.LeadKind, email, eventSlug string) (*models.Lead, error)
}

type leadRepo struct {
	db DB
}

func NewLeadRepository(db DB) LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(ctx context.Context, l *models.Lead) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO leads (
            id,kind,email,full_name,
            organization,event_slug,message
        ) VALUES (
            $1,$2,$3,$4,
            $5,$6,$7
        )
        RETURNING created_at`,
		l.ID, l.Kind, l.Email, l.FullName,
		l.Organization, l.EventSlug, l.Message,
	).Scan(&l.CreatedAt)
	if err == pgx.ErrNoRows {
		return utils.ErrNoRowsUpdated
	}
	return mapPgError(err)
}

func (r *leadRepo) Get(ctx context.Context, kind models.LeadKind, email, eventSlug string) (*models.Lead, error) {
	row := r.db.QueryRow(ctx, `
    SELECT
        id,kind,email,full_name,
        organization,event_slug,message,created_at
    FROM leads
    WHERE kind=$1 AND email=$2 AND event_slug=$3`,
		kind, email, eventSlug,
	)

	var l models.Lead
	var k string
	err := row.Scan(
		&l.ID, &k, &l.Email, &l.FullName,
		&l.Organization, &l.EventSlug, &l.Message, &l.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	l.Kind = models.LeadKind(k)
	return &l, nil
}
