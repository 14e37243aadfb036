// Package migrations embeds the SQL schema of the postgres and mysql storage
// drivers, one directory per dialect.
package migrations

import "embed"

//go:embed postgresql/*.sql mysql/*.sql
var FS embed.FS

// Dir returns the directory holding the migrations of driver.
func Dir(driver string) string {
	if driver == "mysql" {
		return "mysql"
	}
	return "postgresql"
}
