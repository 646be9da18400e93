// go-repositories/member_repository.go

package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

type MemberRepository interface {
	// FindByReferenceOrEmail returns the member owning reference, else the
	// member registered under email, else nil. Inside WithTx the row is
	// locked until the transaction ends.
	FindByReferenceOrEmail(ctx context.Context, reference, email string) (*models.Member, error)
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	GetByPaymentReference(ctx context.Context, reference string) (*models.Member, error)

	Create(ctx context.Context, m *models.Member) error
	UpdatePayment(ctx context.Context, m *models.Member) error
	MarkSlackInvited(ctx context.Context, email string, at time.Time) error

	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(repo MemberRepository) error) error
}

type memberRepo struct {
	db DB
}

func NewMemberRepository(db DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) FindByReferenceOrEmail(ctx context.Context, reference, email string) (*models.Member, error) {
	row := r.db.QueryRow(ctx, baseSelectMember()+`
        WHERE payment_reference=$1 OR email=$2
        ORDER BY (payment_reference=$1) DESC
        LIMIT 1
        FOR UPDATE`,
		reference, email,
	)
	return r.scanMember(row)
}

func (r *memberRepo) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := r.db.QueryRow(ctx, baseSelectMember()+" WHERE email=$1", email)
	return r.scanMember(row)
}

func (r *memberRepo) GetByPaymentReference(ctx context.Context, reference string) (*models.Member, error) {
	row := r.db.QueryRow(ctx, baseSelectMember()+" WHERE payment_reference=$1", reference)
	return r.scanMember(row)
}

// Create inserts m and fills in the storage-managed timestamps. A unique
// violation comes back as utils.ErrEmailExists or
// utils.ErrPaymentReferenceExists.
func (r *memberRepo) Create(ctx context.Context, m *models.Member) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO members (
            id,name,email,payment_reference,
            payment_amount,payment_currency,payment_status,
            membership_status,slack_invited,slack_invite_sent_at
        ) VALUES (
            $1,$2,$3,$4,
            $5,$6,$7,
            $8,$9,$10
        )
        RETURNING created_at,updated_at`,
		m.ID, m.Name, m.Email, m.PaymentReference,
		m.PaymentAmount, m.PaymentCurrency, m.PaymentStatus,
		m.MembershipStatus, m.SlackInvited, m.SlackInviteSentAt,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return utils.ErrNoRowsUpdated
	}
	return mapPgError(err)
}

// UpdatePayment records a renewal on an existing member. Identity and the
// Slack invitation state are left alone.
func (r *memberRepo) UpdatePayment(ctx context.Context, m *models.Member) error {
	err := r.db.QueryRow(ctx, `
        UPDATE members SET
            name=$1,payment_reference=$2,
            payment_amount=$3,payment_currency=$4,
            payment_status=$5,membership_status=$6,
            updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`,
		m.Name, m.PaymentReference,
		m.PaymentAmount, m.PaymentCurrency,
		m.PaymentStatus, m.MembershipStatus,
		m.ID,
	).Scan(&m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return utils.ErrNoRowsUpdated
	}
	return mapPgError(err)
}

func (r *memberRepo) MarkSlackInvited(ctx context.Context, email string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE members
        SET slack_invited=TRUE, slack_invite_sent_at=$1, updated_at=NOW()
        WHERE email=$2`,
		at, email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (r *memberRepo) WithTx(ctx context.Context, fn func(repo MemberRepository) error) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&memberRepo{db: tx})
	})
}

func baseSelectMember() string {
	return `
    SELECT
        id,name,email,payment_reference,
        payment_amount,payment_currency,payment_status,
        membership_status,slack_invited,slack_invite_sent_at,
        created_at,updated_at
    FROM members`
}

func (r *memberRepo) scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var paymentStatus, membershipStatus string
	var sentAt *time.Time

	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.PaymentReference,
		&m.PaymentAmount, &m.PaymentCurrency, &paymentStatus,
		&membershipStatus, &m.SlackInvited, &sentAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	m.PaymentStatus = models.PaymentStatusType(paymentStatus)
	m.MembershipStatus = models.MembershipStatusType(membershipStatus)
	m.SlackInviteSentAt = sentAt

	return &m, nil
}
