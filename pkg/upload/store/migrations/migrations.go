// Package migrations embeds the versioned PostgreSQL schema files applied
// by store.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
