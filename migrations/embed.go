// Package migrations embeds the postgres schema migrations so binaries and
// integration tests apply them without locating files on disk.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
