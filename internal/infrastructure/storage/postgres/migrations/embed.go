// Package migrations embeds the schema migrations applied by golang-migrate.
package migrations

import "embed"

// FS holds the NNNN_name.up.sql / NNNN_name.down.sql pairs.
//
//go:embed *.sql
var FS embed.FS
