package sqlite

import "embed"

//go:embed migrations/*.sql
var migrations embed.FS

// GetMigrationsFS returns the embedded dbmate migrations for sqlite.
func GetMigrationsFS() embed.FS {
	return migrations
}
