//go:build integration

package availability

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Runs the shared ledger suite against a real database:
//
//	TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/availability/
func init() {
	extraLedgerBackends["postgres"] = func(t *testing.T, recounter Recounter) Ledger {
		return NewPostgresLedger(testPostgres(t), recounter, 2*time.Second)
	}
}

func testPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&LedgerEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(50)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}
