// Package migrations embeds the SQL schema files applied by the migration
// runner and by the test fixtures.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
