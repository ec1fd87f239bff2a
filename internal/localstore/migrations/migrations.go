// Package migrations embeds the goose migrations for the device-local
// SQLite cart database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
