// Package migrations embeds the goose migrations for the backend schema the
// cart depends on: the per-user cart row, reservations, the availability
// function and the notification trigger feeding the reservation feed.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
