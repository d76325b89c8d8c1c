package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/internal/db"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDSN points at the database the repository tests run against. Empty
// means no database is reachable and the tests skip.
var testDSN string

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	if dsn := os.Getenv("STOREFRONT_TEST_DATABASE_DSN"); dsn != "" {
		testDSN = dsn
		return m.Run()
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Postgres container unavailable, skipping repository tests")
		return m.Run()
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to terminate postgres container")
		}
	}()

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read postgres connection string")
		testDSN = ""
	}
	return m.Run()
}

// newTestDB returns a migrated database with an empty products table.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDSN == "" {
		t.Skip("no postgres available: set STOREFRONT_TEST_DATABASE_DSN or run docker")
	}

	database, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database))
	require.NoError(t, database.Exec("TRUNCATE products RESTART IDENTITY").Error)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database
}
