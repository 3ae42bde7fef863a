// Package migrations embeds the SQL schema migrations for goose.
//
// Files follow the naming convention YYYYMMDDHHMMSS_description.sql and are
// applied in order when the curator starts.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
