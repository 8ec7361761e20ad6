// Package config handles configuration loading, parsing, and validation
// from various sources (config file, .env file, environment variables). It
// provides type-safe access to application settings needed by different
// components while keeping configuration details separate from business logic.
package config
