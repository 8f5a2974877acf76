package definition_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/sch-migrate/pkg/definition"
)

const sampleDefinition = `{
  "title": "orders",
  "schemaVersion": 6,
  "configuration": [{"name": "executionMode", "value": "STANDALONE"}],
  "stages": [
    {
      "instanceName": "DevRawDataSource_01",
      "library": "streamsets-datacollector-dev-lib",
      "stageName": "com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource",
      "inputLanes": [],
      "outputLanes": ["DevRawDataSource_01OutputLane1"]
    },
    {
      "instanceName": "Trash_01",
      "library": "streamsets-datacollector-basic-lib",
      "uiInfo": {"label": "Trash 1"},
      "inputLanes": ["DevRawDataSource_01OutputLane1"],
      "outputLanes": []
    }
  ]
}`

func TestParsePipeline(t *testing.T) {
	t.Parallel()

	pipe, err := definition.ParsePipeline(sampleDefinition)
	require.NoError(t, err)

	title, ok := pipe.Title()
	require.True(t, ok)
	assert.Equal(t, "orders", title)
	assert.Equal(t, []string{"DevRawDataSource_01", "Trash_01"}, pipe.InstanceNames())
	assert.Equal(t, []string{"DevRawDataSource_01OutputLane1"}, pipe.Stages[1].InputLanes)
	assert.Empty(t, pipe.Stages[0].InputLanes)
	assert.NotNil(t, pipe.Stages[0].InputLanes)
	assert.JSONEq(t, `{"label": "Trash 1"}`, string(pipe.Stages[1].Field("uiInfo")))
}

func TestEncodeKeepsUnknownFields(t *testing.T) {
	t.Parallel()

	pipe, err := definition.ParsePipeline(sampleDefinition)
	require.NoError(t, err)

	encoded, err := pipe.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, sampleDefinition, encoded)
}

func TestParsePipelineMalformed(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		encoded string
		want    error
	}{
		"not json":             {encoded: `{`, want: definition.ErrMalformedDefinition},
		"missing stages":       {encoded: `{"title": "x"}`, want: definition.ErrMalformedDefinition},
		"stages not a list":    {encoded: `{"stages": {}}`, want: definition.ErrMalformedDefinition},
		"null stage":           {encoded: `{"stages": [null]}`, want: definition.ErrMalformedStage},
		"missing name":         {encoded: `{"stages": [{"inputLanes": [], "outputLanes": []}]}`, want: definition.ErrMalformedStage},
		"empty name":           {encoded: `{"stages": [{"instanceName": "", "inputLanes": [], "outputLanes": []}]}`, want: definition.ErrMalformedStage},
		"missing input lanes":  {encoded: `{"stages": [{"instanceName": "Trash_01", "outputLanes": []}]}`, want: definition.ErrMalformedStage},
		"missing output lanes": {encoded: `{"stages": [{"instanceName": "Trash_01", "inputLanes": []}]}`, want: definition.ErrMalformedStage},
		"null lanes":           {encoded: `{"stages": [{"instanceName": "Trash_01", "inputLanes": null, "outputLanes": []}]}`, want: definition.ErrMalformedStage},
		"lanes not strings":    {encoded: `{"stages": [{"instanceName": "Trash_01", "inputLanes": [1], "outputLanes": []}]}`, want: definition.ErrMalformedStage},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := definition.ParsePipeline(tc.encoded)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStageLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DevRawDataSource", definition.NewStage("DevRawDataSource_3").Label())
	assert.Equal(t, "Trash", definition.NewStage("Trash_01_copy").Label())
	assert.Equal(t, "Trash", definition.NewStage("Trash").Label())
}

func TestStageSetReserved(t *testing.T) {
	t.Parallel()

	stage := definition.NewStage("Trash_01")
	require.ErrorIs(t, stage.Set("inputLanes", []string{"a"}), definition.ErrReservedField)
	require.NoError(t, stage.Set("library", "streamsets-datacollector-basic-lib"))
	assert.Equal(t, `"streamsets-datacollector-basic-lib"`, string(stage.Field("library")))

	pipe := definition.NewPipeline(stage)
	require.ErrorIs(t, pipe.Set("stages", nil), definition.ErrReservedField)
}

func TestPipelineSplicing(t *testing.T) {
	t.Parallel()

	first := definition.NewStage("A_01")
	second := definition.NewStage("B_01")
	third := definition.NewStage("C_01")
	pipe := definition.NewPipeline(first, second, third)

	removed, err := pipe.Delete(1)
	require.NoError(t, err)
	assert.Same(t, second, removed)
	assert.Equal(t, []string{"A_01", "C_01"}, pipe.InstanceNames())

	require.NoError(t, pipe.Insert(2, second))
	assert.Equal(t, []string{"A_01", "C_01", "B_01"}, pipe.InstanceNames())
	assert.Equal(t, 2, pipe.Index(second))

	assert.True(t, pipe.Remove(first))
	assert.False(t, pipe.Remove(first))
	assert.Equal(t, -1, pipe.Index(first))

	_, err = pipe.Delete(5)
	require.ErrorIs(t, err, definition.ErrIndexOutOfRange)
	require.ErrorIs(t, pipe.Insert(3, first), definition.ErrIndexOutOfRange)
	require.ErrorIs(t, pipe.Insert(0, nil), definition.ErrStageMustBeSet)
}

func TestPipelineTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		encoded string
		want    string
		ok      bool
	}{
		"string": {encoded: `{"title": "orders", "stages": []}`, want: "orders", ok: true},
		"empty":  {encoded: `{"title": "", "stages": []}`, want: "", ok: true},
		"absent": {encoded: `{"stages": []}`},
		"number": {encoded: `{"title": 42, "stages": []}`},
		"null":   {encoded: `{"title": null, "stages": []}`},
		"object": {encoded: `{"title": {"text": "orders"}, "stages": []}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe, err := definition.ParsePipeline(tt.encoded)
			require.NoError(t, err)

			title, ok := pipe.Title()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, title)
		})
	}
}

func TestPipelineClone(t *testing.T) {
	t.Parallel()

	pipe, err := definition.ParsePipeline(sampleDefinition)
	require.NoError(t, err)

	clone := pipe.Clone()
	clone.Stages[1].InputLanes[0] = "changed"
	require.NoError(t, clone.Set("title", "other"))
	_, err = clone.Delete(0)
	require.NoError(t, err)

	title, ok := pipe.Title()
	require.True(t, ok)
	assert.Equal(t, "orders", title)
	assert.Len(t, pipe.Stages, 2)
	assert.Equal(t, []string{"DevRawDataSource_01OutputLane1"}, pipe.Stages[1].InputLanes)
}

func TestRules(t *testing.T) {
	t.Parallel()

	rules, err := definition.ParseRules(`{"metricsRuleDefinitions": []}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"metricsRuleDefinitions": []}`, rules.String())

	empty, err := definition.ParseRules("")
	require.NoError(t, err)
	assert.Empty(t, empty.String())

	encoded, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(encoded))

	_, err = definition.ParseRules("{")
	require.ErrorIs(t, err, definition.ErrMalformedRules)

	wrapped := struct {
		Rules definition.Rules `json:"rules"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(`{"rules": {"a": 1}}`), &wrapped))

	data, err := json.Marshal(wrapped)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules": {"a": 1}}`, string(data))
}
