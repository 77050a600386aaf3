// Package migrations embeds the schema so binaries carry it with them.
package migrations

import "embed"

// FS holds the SQL files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
