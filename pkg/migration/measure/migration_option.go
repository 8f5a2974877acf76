package measure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/migration/model"
)

type migrationMeasure struct {
	Measure
}

func (mm *migrationMeasure) New() error {
	return nil
}

func (mm *migrationMeasure) Prepare(_ *model.PipelineInfo) error {
	return nil
}

func (mm *migrationMeasure) OnPublished(info *model.PipelineInfo, elapsed time.Duration) error {
	result := PublishedResult
	if info.DryRun {
		result = DryRunResult
	}

	mm.AddPipeline(result, elapsed)

	for _, rpl := range info.Replacements {
		mm.AddReplacement(rpl.From(), rpl.Label)
	}

	return nil
}

func (mm *migrationMeasure) OnFailed(_ *model.PipelineInfo, _ error) error {
	mm.AddFailure()

	return nil
}

func (mm *migrationMeasure) Finish() error {
	return errors.Wrap(mm.Flush(), "unable to flush metrics")
}

// MigrationMeasure records every migrated pipeline into m.
func MigrationMeasure(m Measure) model.MigrationOption {
	return &migrationMeasure{m}
}
