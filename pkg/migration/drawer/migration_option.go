package drawer

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/migration/model"
)

type migrationDrawer struct {
	Drawer
	dir string
}

func (md *migrationDrawer) New() error {
	if md.dir == "" {
		return nil
	}

	return errors.Wrapf(os.MkdirAll(md.dir, 0o755), "unable to create directory %s", md.dir) //nolint:mnd
}

func (md *migrationDrawer) Prepare(info *model.PipelineInfo) error {
	positions := make([]int, len(info.Replacements))
	for i, rpl := range info.Replacements {
		positions[i] = rpl.Index
	}

	err := md.AddPipeline(info.Name, info.Before, positions)
	if err != nil {
		return errors.Wrap(err, "unable to add original pipeline to drawer")
	}

	err = md.AddPipeline(info.NewName, info.After, positions)
	if err != nil {
		return errors.Wrap(err, "unable to add new pipeline to drawer")
	}

	return nil
}

func (md *migrationDrawer) OnPublished(_ *model.PipelineInfo, _ time.Duration) error {
	return nil
}

func (md *migrationDrawer) OnFailed(_ *model.PipelineInfo, _ error) error {
	return nil
}

func (md *migrationDrawer) Finish() error {
	err := md.Draw(context.Background())
	if err != nil {
		return errors.Wrap(err, "unable to draw pipelines")
	}

	return nil
}

// MigrationDrawer draws the original and the new stage graph of every migrated pipeline into dir.
func MigrationDrawer(dir string) model.MigrationOption {
	return &migrationDrawer{Drawer: NewDOTDrawer(dir), dir: dir}
}

// MigrationDrawerWith draws with a custom Drawer.
func MigrationDrawerWith(drawer Drawer) model.MigrationOption {
	return &migrationDrawer{Drawer: drawer}
}
