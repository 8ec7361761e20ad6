package testutils

import (
	"os"
	"testing"
)

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// SkipIfNotIntegration skips t unless DATABASE_URL is set.
func SkipIfNotIntegration(t *testing.T) {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
}

// MustGetTestDatabaseURL returns DATABASE_URL for use in TestMain, where no
// testing.T is available. It panics if the variable is unset.
func MustGetTestDatabaseURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		panic("DATABASE_URL environment variable is required for integration tests")
	}
	return dbURL
}
