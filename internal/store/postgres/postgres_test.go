package postgres

import (
	"os"
	"testing"

	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/database"
	"hbajobs-backend/internal/store/storetest"
)

// These tests need a disposable database: HBAJOBS_TEST_DSN=... go test ./internal/store/postgres
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("HBAJOBS_TEST_DSN")
	if dsn == "" {
		t.Skip("HBAJOBS_TEST_DSN not set")
	}
	cfg := config.Defaults()
	cfg.DatabaseDSN = dsn
	return New(database.Init(cfg))
}

func TestFeedbackUpsertKeepsStoredRow(t *testing.T) {
	storetest.FeedbackUpsert(t, testStore(t))
}
