//go:build integration
// +build integration

package persistence

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// TestContext holds the test database and repositories
type TestContext struct {
	DB      *gorm.DB
	Journal leads.Journal
}

// SetupTestDB initializes a test database with automatic cleanup
func SetupTestDB(t *testing.T, dbType string) *TestContext {
	t.Helper()

	var settings config.DatabaseSettings
	var cleanupFunc func()

	switch dbType {
	case config.SqliteDbType:
		settings = config.DatabaseSettings{
			Type: config.SqliteDbType,
			DSN:  ":memory:",
		}
		cleanupFunc = func() {
			// SQLite in-memory cleanup is automatic
		}

	case config.PostgresDbType:
		uniqueDBName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		settings = config.DatabaseSettings{
			Type:   config.PostgresDbType,
			DSN:    "user=postgres password=postgres host=localhost port=5432 sslmode=disable",
			DBName: uniqueDBName,
		}
		cleanupFunc = func() {
			adminDSN := "user=postgres password=postgres host=localhost port=5432 dbname=postgres sslmode=disable"
			_ = DropDatabase(adminDSN, uniqueDBName)
		}

	default:
		t.Fatalf("Unsupported database type: %s", dbType)
	}

	db, err := NewDBConnection(settings)
	require.NoError(t, err, "Failed to create database connection")

	journal, err := NewGormJournalRepository(db, logger.Noop())
	require.NoError(t, err, "Failed to create journal repository")

	t.Cleanup(func() {
		_ = CloseDB(db)
		cleanupFunc()
	})

	return &TestContext{
		DB:      db,
		Journal: journal,
	}
}

// JournalTestBatch builds a delivery batch with the given md5s
func JournalTestBatch(md5s ...string) []leads.MD5WithPII {
	batch := make([]leads.MD5WithPII, len(md5s))
	for i, md5 := range md5s {
		batch[i] = leads.MD5WithPII{
			MD5:       md5,
			Sentences: []string{"Real Estate>Sellers"},
			PII:       leads.PII{FirstName: "Ada", LastName: "Lovelace", ZipCode: "22101"},
		}
	}
	return batch
}
