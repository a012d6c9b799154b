// Package postgres owns the database lifecycle: connection pool setup,
// schema migrations, and the idempotent seeder. Both migration and seeding
// run during startup before the service reports ready.
package postgres
