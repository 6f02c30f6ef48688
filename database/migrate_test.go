package database_test

import (
	"bytes"
	"log"
	"os"
	"testing"

	"creditmeter/database"
	"creditmeter/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_ReportsNoChangeWhenCurrent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	t.Setenv("DATABASE_URL", testDB.URL)

	// The test database is already fully migrated; a second up must be a
	// no-op and say so rather than claim a fresh migration
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	require.NoError(t, database.MigrateUp())

	assert.Contains(t, buf.String(), "No new migrations to apply")
	assert.NotContains(t, buf.String(), "Successfully migrated")
}

func TestMigrateStatus_ReportsCurrentVersion(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	t.Setenv("DATABASE_URL", testDB.URL)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	require.NoError(t, database.MigrateStatus())

	assert.Contains(t, buf.String(), "Current migration version")
	assert.Contains(t, buf.String(), "clean")
}

func TestRunMigrationsWithURL_Idempotent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	// Setup already ran the migrations once; running again must not fail
	require.NoError(t, database.RunMigrationsWithURL(testDB.URL))
}
