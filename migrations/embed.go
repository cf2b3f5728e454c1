// Package migrations carries the SQL schema files inside the binary, so
// a deployment needs no migration directory on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/door-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationFiles = files
	database.MigrationRoot = "." // embedded paths are relative to this package
}
