package migration

import (
	"log/slog"

	"github.com/askiada/sch-migrate/pkg/migration/model"
)

const (
	// DefaultSuffix is appended to the name of a migrated pipeline.
	DefaultSuffix = "_2"
	// DefaultCommitMessage is the commit message of a migrated pipeline, %s is the original name.
	DefaultCommitMessage = "Automated migration of %s"
)

// MigratorOption configures a Migrator.
type MigratorOption func(m *Migrator)

// WithLogger sets the logger of the migrator.
func WithLogger(logger *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		m.logger = logger
	}
}

// KeepGoing makes a run continue after a pipeline fails.
func KeepGoing(keepGoing bool) MigratorOption {
	return func(m *Migrator) {
		m.keepGoing = keepGoing
	}
}

// DryRun makes the migrator do everything but publish.
func DryRun(dryRun bool) MigratorOption {
	return func(m *Migrator) {
		m.dryRun = dryRun
	}
}

// WithSuffix replaces DefaultSuffix.
func WithSuffix(suffix string) MigratorOption {
	return func(m *Migrator) {
		m.suffix = suffix
	}
}

// WithCommitMessage replaces DefaultCommitMessage.
func WithCommitMessage(format string) MigratorOption {
	return func(m *Migrator) {
		m.commitMessage = format
	}
}

// WithOptions adds hooks called for every pipeline of a run.
func WithOptions(opts ...model.MigrationOption) MigratorOption {
	return func(m *Migrator) {
		m.opts = append(m.opts, opts...)
	}
}
