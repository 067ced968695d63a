package app

import (
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"xpack-migrator/internal/config"
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/logging"
	"xpack-migrator/internal/migrate"
	"xpack-migrator/internal/searchguard"
)

const outputDirPerm = 0o755

func newMigrateCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert the X-Pack configuration files to Search Guard",
		Long: `Convert the X-Pack configuration files found in the input directory and write the
Search Guard configuration files and migration_report.md to the output directory.

Missing input files are skipped. When critical issues are found only the report
is written and the command exits with code 2, unless --allow-critical is set.

Every flag can also be set in the config file or as an environment variable,
for example XPACK_MIGRATOR_OUTPUT_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			defer func() { _ = log.Sync() }()

			return runMigrate(cmd.OutOrStdout(), cfg, log)
		},
	}

	if err := config.RegisterFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

func runMigrate(out io.Writer, cfg *config.Config, log *zap.Logger) error {
	opts, err := cfg.RealmOptions()
	if err != nil {
		return err
	}

	in, err := loadInputs(cfg, log)
	if err != nil {
		return err
	}

	if cfg.DumpIR {
		in.dump(out)
	}

	rep := diagnostic.NewSearchGuard()

	res, err := migrate.NewMigrator(migrate.DefaultRegistry(), migrate.WithLogger(log)).Migrate(in.context(opts), rep)
	if err != nil {
		return errors.Wrap(err, "migration failed")
	}

	if err := writeReport(cfg, rep); err != nil {
		return err
	}

	log.Info("wrote report", zap.String("path", cfg.ReportPath()))

	if err := printSummary(out, res); err != nil {
		return err
	}

	if res.HasCritical() && !cfg.AllowCritical {
		log.Warn("critical issues found; no configuration files were written",
			zap.Int("critical", res.Counts.Critical))

		return &ExitError{
			Code: ExitCritical,
			Err: errors.Newf("%d critical issue(s) found, see %s; use --allow-critical to write the files anyway",
				res.Counts.Critical, cfg.ReportPath()),
		}
	}

	paths, err := searchguard.WriteFiles(cfg.OutputDir, res.Configs)
	for _, p := range paths {
		log.Info("wrote file", zap.String("path", p))
	}

	return err
}

func writeReport(cfg *config.Config, rep *diagnostic.Reporter) error {
	if err := os.MkdirAll(cfg.OutputDir, outputDirPerm); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", cfg.OutputDir)
	}

	f, err := os.Create(cfg.ReportPath())
	if err != nil {
		return errors.Wrap(err, "failed to create report")
	}

	if _, err := rep.WriteTo(f); err != nil {
		_ = f.Close()

		return errors.Wrapf(err, "failed to write %s", cfg.ReportPath())
	}

	return errors.Wrapf(f.Close(), "failed to write %s", cfg.ReportPath())
}

// printSummary renders the issue counts as a table followed by the summary line.
func printSummary(w io.Writer, res *migrate.Result) error {
	table := tablewriter.NewWriter(w)
	table.Options(tablewriter.WithHeader([]string{"Severity", "Issues"}))

	rows := [][]string{
		{diagnostic.Critical.String(), strconv.Itoa(res.Counts.Critical)},
		{diagnostic.Inconvertible.String(), strconv.Itoa(res.Counts.Inconvertible)},
		{diagnostic.Problem.String(), strconv.Itoa(res.Counts.Problem)},
		{"total", strconv.Itoa(res.Counts.Total())},
	}

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "failed to append row")
		}
	}

	if err := table.Render(); err != nil {
		return errors.Wrap(err, "failed to render table")
	}

	_, err := io.WriteString(w, res.Summary+"\n")

	return err
}
