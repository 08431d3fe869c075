package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	expectedTables  = []string{"cache", "runs"}
	expectedIndexes = []string{"idx_cache_expires", "idx_runs_started"}
)

func createTestManager(t *testing.T) (*Manager, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", MemoryDSN)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return &Manager{db: db}, db
}

func setDatabaseVersion(t *testing.T, db *sql.DB, version int) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", version))
	require.NoError(t, err)
}

func objectExists(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()

	var found string
	err := db.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestRunMigrationsFresh(t *testing.T) {
	t.Parallel()

	manager, db := createTestManager(t)
	require.NoError(t, manager.runMigrations(context.Background()))

	for _, table := range expectedTables {
		assert.True(t, objectExists(t, db, "table", table), "table %s should exist", table)
	}
	for _, index := range expectedIndexes {
		assert.True(t, objectExists(t, db, "index", index), "index %s should exist", index)
	}
}

func TestRunMigrationsSkipsApplied(t *testing.T) {
	t.Parallel()

	manager, db := createTestManager(t)
	setDatabaseVersion(t, db, 1)

	require.NoError(t, manager.runMigrations(context.Background()))

	assert.False(t, objectExists(t, db, "table", "cache"), "version 1 was marked applied")
	assert.True(t, objectExists(t, db, "table", "runs"))
}

func TestRunMigrationsUpToDate(t *testing.T) {
	t.Parallel()

	manager, db := createTestManager(t)
	setDatabaseVersion(t, db, LatestVersion())

	require.NoError(t, manager.runMigrations(context.Background()))

	for _, table := range expectedTables {
		assert.False(t, objectExists(t, db, "table", table))
	}
}

func TestExecuteMigrationRollsBackOnError(t *testing.T) {
	t.Parallel()

	manager, db := createTestManager(t)

	err := manager.executeMigration(context.Background(), migration{
		version: 99,
		sql:     "CREATE TABLE broken (; ",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute migration 99")

	var version int
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version))
	assert.Equal(t, 0, version)
}
