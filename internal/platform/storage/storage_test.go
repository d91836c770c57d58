package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/platform/config"
)

func TestOpenSQLiteSeedsAdministrator(t *testing.T) {
	cfg := config.Config{
		DatabaseURL:       "sqlite::memory:",
		RunSeed:           true,
		SeedAdminEmail:    "Owner@Example.com",
		SeedAdminPassword: "change-me-now",
	}
	stores, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, BackendSQLite, stores.Backend)
	require.NoError(t, stores.Ping(context.Background()))

	user, err := stores.Users.FindByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdministrator, user.Role)

	customers, err := stores.Users.CountByRole(context.Background(), auth.RoleCustomer)
	require.NoError(t, err)
	assert.Zero(t, customers)
}

func TestOpenPostgres(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	stores, err := Open(context.Background(), config.Config{DatabaseURL: dbURL, RunMigrations: true})
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, BackendPostgres, stores.Backend)
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestClosedStoresPingFails(t *testing.T) {
	var stores *Stores
	assert.Error(t, stores.Ping(context.Background()))
	stores.Close()
}
