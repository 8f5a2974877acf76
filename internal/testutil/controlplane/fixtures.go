package controlplane

import (
	"encoding/json"
	"fmt"

	"github.com/askiada/sch-migrate/pkg/controlhub"
)

// SdcID is the id of the authoring node registered by Seed.
const SdcID = "sdc-1"

// Rules is the rules definition attached to seeded pipelines.
const Rules = `{"metricsRuleDefinitions": [], "dataRuleDefinitions": []}`

// Library returns a stage library offering the stages used in tests.
func Library() controlhub.StageLibrary {
	stage := func(label, name, library, stageType string) controlhub.StageDefinition {
		return controlhub.StageDefinition{
			Name:        name,
			Library:     library,
			Version:     "1",
			Label:       label,
			Type:        stageType,
			Description: label + " stage",
			ConfigDefinitions: []controlhub.ConfigDefinition{
				{Name: "conf.enabled", DefaultValue: true},
			},
		}
	}

	return controlhub.StageLibrary{Stages: []controlhub.StageDefinition{
		stage("Dev Raw Data Source", "com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource", "streamsets-datacollector-dev-lib", controlhub.SourceStageType),
		stage("Dev Data Generator", "com_streamsets_pipeline_stage_devtest_RandomDataGeneratorSource", "streamsets-datacollector-dev-lib", controlhub.SourceStageType),
		stage("Expression Evaluator", "com_streamsets_pipeline_stage_processor_expression_ExpressionDProcessor", "streamsets-datacollector-basic-lib", controlhub.ProcessorStageType),
		stage("Trash", "com_streamsets_pipeline_stage_destination_devnull_NullDTarget", "streamsets-datacollector-basic-lib", controlhub.TargetStageType),
		stage("Local FS", "com_streamsets_pipeline_stage_destination_localfilesystem_LocalFileSystemDTarget", "streamsets-datacollector-basic-lib", controlhub.TargetStageType),
	}}
}

// LinearDefinition returns a serialized definition whose stages feed each other in order.
func LinearDefinition(title string, instanceNames ...string) string {
	stages := make([]map[string]any, len(instanceNames))
	for i, name := range instanceNames {
		in := []string{}
		if i > 0 {
			in = []string{instanceNames[i-1] + "OutputLane"}
		}

		out := []string{}
		if i < len(instanceNames)-1 {
			out = []string{name + "OutputLane"}
		}

		stages[i] = map[string]any{
			"instanceName": name,
			"library":      "streamsets-datacollector-basic-lib",
			"uiInfo":       map[string]any{"label": fmt.Sprintf("%s stage", name)},
			"inputLanes":   in,
			"outputLanes":  out,
		}
	}

	data, err := json.Marshal(map[string]any{
		"title":         title,
		"schemaVersion": 6,
		"stages":        stages,
	})
	if err != nil {
		panic(err)
	}

	return string(data)
}

// Seed registers the authoring node and one linear pipeline per name, each holding a Trash and a
// Dev Raw Data Source stage between plain stages.
func (cp *ControlPlane) Seed(names ...string) {
	cp.AddDataCollector(controlhub.DataCollector{
		ID:      SdcID,
		URL:     "http://sdc.example:18630",
		Version: "3.22.0",
	}, Library())

	for _, name := range names {
		cp.AddPipeline(name, SdcID,
			LinearDefinition(name, "Expression_01", "Trash_01", "Expression_02", "DevRawDataSource_01", "Expression_03"),
			Rules)
	}
}
