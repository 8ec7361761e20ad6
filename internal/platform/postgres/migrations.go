package postgres

import "embed"

// MigrationsDir is the directory of the SQL migrations inside Migrations.
const MigrationsDir = "migrations"

// Migrations holds the goose SQL migrations for the schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS
