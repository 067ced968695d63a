package app

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"xpack-migrator/internal/luceneregex"
)

func newRegexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regex PATTERN...",
		Short: "Convert Lucene regular expressions to Search Guard patterns",
		Long: `Convert Lucene regular expressions, as used in X-Pack index names and role
mapping rules, to the Java syntax Search Guard expects. Patterns are written
with their slashes, for example '/logs-@/'. Values without slashes are printed
unchanged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, pattern := range args {
				converted, err := luceneregex.Convert(pattern)
				if err != nil {
					return errors.Wrapf(err, "cannot convert %s", pattern)
				}

				fmt.Fprintln(out, converted)
			}

			return nil
		},
	}
}
