package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationsFS returns the embedded migration files rooted at their directory.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err) // the path is a compile-time constant
	}
	return sub
}
