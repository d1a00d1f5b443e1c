// Package migrations embeds the SQL schema for the backend fixture store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
