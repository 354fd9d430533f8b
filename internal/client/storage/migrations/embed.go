// Package migrations embeds the goose migrations of the SQLite credential
// backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
