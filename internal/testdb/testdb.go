//go:build integration

// Package testdb provides helpers for integration tests that run against a
// real Postgres database. Tests using it are skipped unless DATABASE_URL is
// set, and each test runs inside a transaction that is rolled back so the
// database stays clean and tests can run in parallel.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/medivue-api/migrations"
)

// envDatabaseURL is the environment variable holding the test database URL.
const envDatabaseURL = "DATABASE_URL"

// GetTestDatabaseURL returns the database URL for integration tests, or an
// empty string when none is configured.
func GetTestDatabaseURL() string {
	return os.Getenv(envDatabaseURL)
}

// MustConnect opens a connection to the test database and brings its schema
// up to date. The test is skipped when no database is configured and failed
// when the database is configured but unreachable. The connection is closed
// automatically when the test finishes.
func MustConnect(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("skipping integration test: %s not set", envDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	migrateUp(t, db)
	return db
}

// migrateUp applies the embedded migrations to the test database.
func migrateUp(t *testing.T, db *sql.DB) {
	t.Helper()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("failed to set goose dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
}

// WithTx runs fn inside a transaction that is always rolled back, so any
// rows the test writes never outlive it.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin test transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
