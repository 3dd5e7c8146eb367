package database

import (
	"testing"
	"time"

	"bankfeed/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForDatabase_ReadyImmediately(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()

	runner := NewMigrationRunner(db, logger.Nop())
	assert.NoError(t, runner.WaitForDatabase())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDatabase_RecoversAfterFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	// Shrink the retry loop so the test doesn't sleep for real.
	origRetries, origInterval := maxRetries, retryInterval
	maxRetries, retryInterval = 3, time.Millisecond
	defer func() { maxRetries, retryInterval = origRetries, origInterval }()

	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectPing()

	runner := NewMigrationRunner(db, logger.Nop())
	assert.NoError(t, runner.WaitForDatabase())
}

func TestWaitForDatabase_GivesUp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	origRetries, origInterval := maxRetries, retryInterval
	maxRetries, retryInterval = 2, time.Millisecond
	defer func() { maxRetries, retryInterval = origRetries, origInterval }()

	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectPing().WillReturnError(assert.AnError)

	runner := NewMigrationRunner(db, logger.Nop())
	assert.Error(t, runner.WaitForDatabase())
}

func TestRunMigrations_SkipsWhenDirectoryMissing(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runner := NewMigrationRunner(db, logger.Nop())
	runner.migrationsPath = "does/not/exist"

	assert.NoError(t, runner.RunMigrations())
}
