// Package sqlite embeds the schema migrations of the local CLI database.
package sqlite

import "embed"

// FS holds every *.sql migration, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
