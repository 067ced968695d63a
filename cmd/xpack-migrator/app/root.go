// Package app provides the commands of the xpack-migrator command line tool.
package app

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFatal    = 1
	ExitCritical = 2
)

// ExitError carries a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFatal
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xpack-migrator",
		Short: "Migrate an X-Pack security configuration to Search Guard",
		Long: `xpack-migrator reads the X-Pack security configuration of an Elasticsearch
cluster and writes the equivalent Search Guard configuration files:

- sg_authc.yml and sg_frontend_authc.yml from realms and Kibana providers
- sg_roles.yml and sg_action_groups.yml from roles
- sg_roles_mapping.yml from role mappings
- sg_internal_users.yml from native users

Every setting that cannot be carried over is listed in migration_report.md.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRegexCmd())
	root.AddCommand(newVersionCmd())

	return root
}
