package controlhub

import (
	"github.com/askiada/sch-migrate/pkg/definition"
)

// Stage types as reported by the stage library.
const (
	SourceStageType    = "SOURCE"
	ProcessorStageType = "PROCESSOR"
	TargetStageType    = "TARGET"
	ExecutorStageType  = "EXECUTOR"
)

// CommitSummary identifies one version of a pipeline.
type CommitSummary struct {
	PipelineID    string `json:"pipelineId,omitempty"`
	CommitID      string `json:"commitId,omitempty"`
	Name          string `json:"name"`
	Version       string `json:"version,omitempty"`
	SdcID         string `json:"sdcId"`
	SdcVersion    string `json:"sdcVersion,omitempty"`
	CommitMessage string `json:"commitMessage,omitempty"`
}

type pipelineCommit struct {
	CommitSummary
	PipelineDefinition string `json:"pipelineDefinition"`
	RulesDefinition    string `json:"rulesDefinition"`
}

// Pipeline is a pipeline version with its decoded definition.
type Pipeline struct {
	ID         string
	CommitID   string
	Name       string
	Version    string
	SdcID      string
	SdcVersion string
	Definition *definition.Pipeline
	Rules      definition.Rules
}

// DataCollector is an authoring engine registered with Control Hub.
type DataCollector struct {
	ID      string   `json:"id"`
	URL     string   `json:"httpUrl"`
	Version string   `json:"version"`
	Labels  []string `json:"labels"`
}

// ConfigDefinition is a stage configuration with its default value.
type ConfigDefinition struct {
	Name         string `json:"name"`
	DefaultValue any    `json:"defaultValue"`
}

// StageDefinition describes a stage a Data Collector can run.
type StageDefinition struct {
	Name              string             `json:"name"`
	Library           string             `json:"library"`
	Version           string             `json:"version"`
	Label             string             `json:"label"`
	Type              string             `json:"type"`
	Description       string             `json:"description"`
	ConfigDefinitions []ConfigDefinition `json:"configDefinitions"`
}

// HasOutput reports whether stages of this type produce records for other stages.
func (d *StageDefinition) HasOutput() bool {
	return d.Type != TargetStageType && d.Type != ExecutorStageType
}

// StageLibrary lists the stages available on a Data Collector.
type StageLibrary struct {
	Stages []StageDefinition `json:"stages"`
}

// Lookup returns the first stage definition with the given label.
func (l *StageLibrary) Lookup(label string) (*StageDefinition, bool) {
	if l == nil {
		return nil, false
	}

	for i := range l.Stages {
		if l.Stages[i].Label == label {
			return &l.Stages[i], true
		}
	}

	return nil, false
}
