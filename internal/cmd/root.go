// Package cmd holds the sch-migrate command line.
package cmd

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/askiada/sch-migrate/internal/config"
	"github.com/askiada/sch-migrate/internal/logging"
	"github.com/askiada/sch-migrate/pkg/controlhub"
	"github.com/askiada/sch-migrate/pkg/migration"
	"github.com/askiada/sch-migrate/pkg/migration/drawer"
	"github.com/askiada/sch-migrate/pkg/migration/measure"
	"github.com/askiada/sch-migrate/pkg/migration/model"
)

const configFlag = "config"

// report is the document printed by a dry run.
type report struct {
	DryRun    bool            `yaml:"dry_run"`
	Pipelines []*model.Result `yaml:"pipelines"`
}

// NewRootCommand returns the sch-migrate command.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   "sch-migrate [flags] PIPELINE [PIPELINE...]",
		Short: "Republish Control Hub pipelines with some stages replaced",
		Long: `sch-migrate fetches each named pipeline from StreamSets Control Hub, replaces the
stages listed in the stage mapping by new stages wired to the same lanes, and publishes the
result as a new pipeline named after the original with a suffix.

Credentials are read from SCH_SERVER_URL, SCH_USERNAME and SCH_PASSWORD. Every other setting can
be given as a flag, a SCH_<KEY> environment variable or a key of the YAML config file.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}

	flags := cmd.Flags()
	flags.StringP(configFlag, "c", "", "YAML config file")
	flags.BoolP("verbose", "v", false, "log at DEBUG level")
	flags.Bool("keep-going", false, "migrate the remaining pipelines after a failure")
	flags.Bool("dry-run", false, "do everything but publish, then print a YAML report")
	flags.String("draw-dir", "", "write the stage graph of every pipeline as DOT files into this directory")
	flags.String("metrics-file", "", "write Prometheus metrics of the run to this file")
	flags.String("suffix", migration.DefaultSuffix, "suffix appended to the name of migrated pipelines")

	for key, flag := range map[string]string{
		config.VerboseKey:     "verbose",
		config.KeepGoingKey:   "keep-going",
		config.DryRunKey:      "dry-run",
		config.DrawDirKey:     "draw-dir",
		config.MetricsFileKey: "metrics-file",
		config.SuffixKey:      "suffix",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, names []string) error {
	if path, _ := cmd.Flags().GetString(configFlag); path != "" {
		err := config.ReadFile(v, path)
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Level())

	mapping, err := cfg.Mapping()
	if err != nil {
		return err
	}

	client, err := controlhub.New(cfg.ServerURL, cfg.Username, cfg.Password,
		controlhub.WithLogger(logger),
		controlhub.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}

	hooks := []model.MigrationOption{}
	if cfg.DrawDir != "" {
		hooks = append(hooks, drawer.MigrationDrawer(cfg.DrawDir))
	}

	if cfg.MetricsFile != "" {
		hooks = append(hooks, measure.MigrationMeasure(measure.NewPrometheusMeasure(cfg.MetricsFile)))
	}

	migrator, err := migration.New(client, mapping,
		migration.WithLogger(logger),
		migration.KeepGoing(cfg.KeepGoing),
		migration.DryRun(cfg.DryRun),
		migration.WithSuffix(cfg.Suffix),
		migration.WithCommitMessage(cfg.CommitMessage),
		migration.WithOptions(hooks...),
	)
	if err != nil {
		return err
	}

	logger.DebugContext(cmd.Context(), "starting migration",
		"pipelines", len(names), "stage_mappings", mapping.Len(), "dry_run", cfg.DryRun, "keep_going", cfg.KeepGoing)

	results, runErr := migrator.Run(cmd.Context(), names...)

	if cfg.DryRun {
		err = writeReport(cmd.OutOrStdout(), results)
		if err != nil {
			return err
		}
	}

	return runErr
}

func writeReport(w io.Writer, results []*model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd

	err := enc.Encode(report{DryRun: true, Pipelines: results})
	if err != nil {
		return errors.Wrap(err, "unable to write report")
	}

	return errors.Wrap(enc.Close(), "unable to write report")
}
