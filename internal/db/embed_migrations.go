package db

import "embed"

// MigrationFS holds the MongoDB data migrations. Each file is a JSON array of
// database commands applied in order by internal/db/migrate.
//
//go:embed migrations/*.json
var MigrationFS embed.FS
