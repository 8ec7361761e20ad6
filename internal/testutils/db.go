package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskkeeper/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

var (
	migrationsOnce sync.Once
	migrationsErr  error
)

// SetupTestDatabaseSchema resets the schema to version 0 and applies every
// embedded migration. It runs at most once per test binary.
func SetupTestDatabaseSchema(db *sql.DB) error {
	migrationsOnce.Do(func() {
		goose.SetBaseFS(postgres.Migrations)
		goose.SetLogger(goose.NopLogger())
		if err := goose.SetDialect("postgres"); err != nil {
			migrationsErr = fmt.Errorf("failed to set goose dialect: %w", err)
			return
		}
		if err := goose.DownTo(db, postgres.MigrationsDir, 0); err != nil {
			migrationsErr = fmt.Errorf("failed to reset database schema: %w", err)
			return
		}
		if err := goose.Up(db, postgres.MigrationsDir); err != nil {
			migrationsErr = fmt.Errorf("failed to apply migrations: %w", err)
		}
	})
	return migrationsErr
}

// OpenTestDB connects to DATABASE_URL, verifies the connection and makes
// sure the schema is migrated.
func OpenTestDB(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := SetupTestDatabaseSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// GetTestDBWithT opens the test database, skipping t when none is
// configured. The connection is closed through t.Cleanup.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNotIntegration(t)

	db, err := OpenTestDB(MustGetTestDatabaseURL())
	if err != nil {
		t.Fatalf("failed to get test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// can share tables and run in parallel.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
