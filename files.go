package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded schema migrations for the accounts,
// organizations, and applications tables. Hosts run them with their own
// migration tooling before mounting the auth routes.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
