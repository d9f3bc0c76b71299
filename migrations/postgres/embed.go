// Package postgres embeds the Postgres schema migrations for the goose provider.
package postgres

import "embed"

// FS holds every *.sql migration, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
