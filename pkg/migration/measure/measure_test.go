package measure_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/sch-migrate/pkg/migration/measure"
	"github.com/askiada/sch-migrate/pkg/migration/model"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

func TestPrometheusMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewPrometheusMeasure("")

	m.AddPipeline(measure.PublishedResult, time.Second)
	m.AddPipeline(measure.PublishedResult, 2*time.Second)
	m.AddFailure()
	m.AddReplacement("Trash", "Local FS")

	assert.InDelta(t, 2, testutil.ToFloat64(m.Pipelines.WithLabelValues(measure.PublishedResult)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Pipelines.WithLabelValues(measure.FailedResult)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StagesReplaced.WithLabelValues("Trash", "Local FS")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.PipelineDuration))

	count, err := testutil.GatherAndCount(m.Registry(), "sch_migrate_pipelines_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, m.Flush())
}

func TestPrometheusMeasureFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sch_migrate.prom")
	m := measure.NewPrometheusMeasure(path)
	m.AddReplacement("DevRawDataSource", "Dev Data Generator")

	require.NoError(t, m.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data),
		`sch_migrate_stages_replaced_total{from="DevRawDataSource",to="Dev Data Generator"} 1`)
}

func TestMigrationMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewPrometheusMeasure("")
	opt := measure.MigrationMeasure(m)

	info := &model.PipelineInfo{
		Name:    "orders",
		NewName: "orders_2",
		Replacements: []rewriter.Replacement{
			{Label: "Local FS", Replaced: "Trash_01", Index: 1},
			{Label: "Dev Data Generator", Replaced: "DevRawDataSource_01", Index: 3},
			{Label: "Local FS", Replaced: "Trash_02", Index: 4},
		},
	}

	require.NoError(t, opt.New())
	require.NoError(t, opt.Prepare(info))
	require.NoError(t, opt.OnPublished(info, time.Second))

	info.DryRun = true
	require.NoError(t, opt.OnPublished(info, time.Second))
	require.NoError(t, opt.OnFailed(info, assert.AnError))
	require.NoError(t, opt.Finish())

	assert.InDelta(t, 1, testutil.ToFloat64(m.Pipelines.WithLabelValues(measure.PublishedResult)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Pipelines.WithLabelValues(measure.DryRunResult)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Pipelines.WithLabelValues(measure.FailedResult)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.StagesReplaced.WithLabelValues("Trash", "Local FS")), 0)
	assert.InDelta(t, 2,
		testutil.ToFloat64(m.StagesReplaced.WithLabelValues("DevRawDataSource", "Dev Data Generator")), 0)
}
