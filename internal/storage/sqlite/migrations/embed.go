package migrations

import "embed"

// FS contains embedded SQLite migrations for wave storage.
//
//go:embed *.sql
var FS embed.FS
