// Package migrations holds the schema, applied in file name order by db.RunMigrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
