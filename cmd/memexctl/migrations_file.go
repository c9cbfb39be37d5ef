//go:build !embed_migrations

package main

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "pkg/db/migrations"

func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	path := defaultMigrationsPath
	fmt.Printf("Running migrations from file://%s\n", path)
	return migrate.New("file://"+path, dbURL)
}
