// Package migrations embeds the goose SQL migrations so deployed binaries
// can apply the schema without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
