package migrations

import "embed"

// FS contains embedded SQLite migrations for social graph storage.
//
//go:embed *.sql
var FS embed.FS
