// Package store defines the persistence contracts for users and tasks.
// Implementations live in internal/platform/postgres; services depend only
// on these interfaces so they can run against in-memory fakes in tests.
package store
