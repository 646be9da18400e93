package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

// TestHelper bundles what the Postgres-backed integration tests share.
type TestHelper struct {
	T   *testing.T
	Ctx context.Context
	DB  *pgxpool.Pool

	PaystackSecretKey   string
	StripeWebhookSecret string

	// From ldflags
	AppName         string
	UniqueRunNumber string
	UniqueRunnerID  string

	// Repositories
	MemberRepo repositories.MemberRepository
	LeadRepo   repositories.LeadRepository
}

// NewTestHelper connects to the test database and applies the schema. It
// skips the test when no database is configured.
//
// TEST_DB_URL wins. Otherwise DB_URL is read after the Bitwarden overlay
// for "<appName>-<ENV>" and "shared-<ENV>" has been applied.
func NewTestHelper(t *testing.T, appName, uniqueRunID, uniqueRunNum string) *TestHelper {
	t.Helper()

	dbURL := os.Getenv("TEST_DB_URL")
	if dbURL == "" {
		if env := os.Getenv("ENV"); env != "" {
			err := utils.LoadBWSSecretsIntoEnv(
				fmt.Sprintf("%s-%s", appName, env),
				fmt.Sprintf("shared-%s", env),
			)
			require.NoError(t, err, "Failed to load Bitwarden secrets")
		}
		dbURL = os.Getenv("DB_URL")
	}
	if dbURL == "" {
		t.Skip("no TEST_DB_URL or DB_URL configured")
	}

	if uniqueRunID != "" && uniqueRunNum != "" {
		effectiveURL, err := utils.WithIsolatedRole(dbURL, uniqueRunID, uniqueRunNum)
		require.NoError(t, err)
		dbURL = effectiveURL
	}

	ctx := context.Background()
	dbPool, err := pgxpool.Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbPool.Close() })

	require.NoError(t, repositories.ApplySchema(ctx, dbPool))

	return &TestHelper{
		T:                   t,
		Ctx:                 ctx,
		DB:                  dbPool,
		PaystackSecretKey:   utils.FirstNonEmpty(os.Getenv("PAYSTACK_SECRET_KEY"), "sk_test_integration"),
		StripeWebhookSecret: utils.FirstNonEmpty(os.Getenv("STRIPE_WEBHOOK_SECRET"), "whsec_integration"),
		AppName:             appName,
		UniqueRunnerID:      uniqueRunID,
		UniqueRunNumber:     uniqueRunNum,
		MemberRepo:          repositories.NewMemberRepository(dbPool),
		LeadRepo:            repositories.NewLeadRepository(dbPool),
	}
}

// UniqueEmail returns an address no other run will use.
func (h *TestHelper) UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s-%s-%s@%s", prefix, h.UniqueRunnerID, h.UniqueRunNumber, uuid.NewString()[:8], utils.TestEmailDomain)
}
