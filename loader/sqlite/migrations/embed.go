package migrations

import "embed"

// FS contains the embedded reference-data schema migrations.
//
//go:embed *.sql
var FS embed.FS
