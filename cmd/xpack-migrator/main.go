// Package main provides the CLI entrypoint for xpack-migrator.
//
// xpack-migrator converts an X-Pack security configuration into Search Guard
// configuration files:
//   - Reads elasticsearch.yml, kibana.yml and the roles, role mapping and user exports
//   - Translates realms, roles, role mappings, users and Kibana login settings
//   - Writes the sg_*.yml files and a report of everything that needs attention
package main

import (
	"os"

	"xpack-migrator/cmd/xpack-migrator/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(app.ExitCode(err))
	}
}
