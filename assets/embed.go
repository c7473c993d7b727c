// Package assets embeds the SQL migrations and the default association
// catalog so the server runs without any files on disk.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed catalog.yaml migrations/*.sql
var FS embed.FS

// DefaultCatalog returns the embedded seed catalog (YAML).
func DefaultCatalog() ([]byte, error) {
	return FS.ReadFile("catalog.yaml")
}

// Migrations returns the migrations directory as its own filesystem root.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "migrations")
}
