// Package migrations embeds the goose SQL migrations for the state reference tables.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
