package controlhub

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/definition"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

// Builder edits an imported pipeline definition with the stages of an authoring Data Collector.
type Builder struct {
	node    *DataCollector
	library *StageLibrary
	def     *definition.Pipeline
	rules   definition.Rules
}

var _ rewriter.StageBuilder = (*Builder)(nil)

// NewBuilder creates a builder bound to node and the stages it offers.
func NewBuilder(node *DataCollector, library *StageLibrary) *Builder {
	return &Builder{
		node:    node,
		library: library,
	}
}

// Import loads a copy of def and rules into the builder.
func (b *Builder) Import(def *definition.Pipeline, rules definition.Rules) error {
	if def == nil {
		return ErrDefinitionMustBeSet
	}

	b.def = def.Clone()
	b.rules = append(definition.Rules(nil), rules...)

	return nil
}

// Definition returns the definition being built, nil before Import.
func (b *Builder) Definition() *definition.Pipeline {
	return b.def
}

// AddStage appends a new stage with the given library label and its default configuration.
func (b *Builder) AddStage(label string) (*definition.Stage, error) {
	if b.def == nil {
		return nil, ErrNothingImported
	}

	stageDef, ok := b.library.Lookup(label)
	if !ok {
		return nil, errors.Wrap(ErrUnknownStage, label)
	}

	instanceName := b.nextInstanceName(label)
	stage := definition.NewStage(instanceName)

	configuration := make([]map[string]any, 0, len(stageDef.ConfigDefinitions))
	for _, conf := range stageDef.ConfigDefinitions {
		configuration = append(configuration, map[string]any{"name": conf.Name, "value": conf.DefaultValue})
	}

	fields := map[string]any{
		"library":       stageDef.Library,
		"stageName":     stageDef.Name,
		"stageVersion":  stageDef.Version,
		"configuration": configuration,
		"services":      []any{},
		"eventLanes":    []string{},
		"uiInfo": map[string]any{
			"label":       instanceLabel(label, instanceName),
			"description": stageDef.Description,
			"stageType":   stageDef.Type,
		},
	}
	for key, value := range fields {
		err := stage.Set(key, value)
		if err != nil {
			return nil, err
		}
	}

	if stageDef.HasOutput() {
		stage.OutputLanes = []string{instanceName + "OutputLane" + strings.ReplaceAll(uuid.NewString(), "-", "")}
	}

	b.def.Stages = append(b.def.Stages, stage)

	return stage, nil
}

// RemoveStage removes stage, compared by reference.
func (b *Builder) RemoveStage(stage *definition.Stage) error {
	if b.def == nil {
		return ErrNothingImported
	}

	if !b.def.Remove(stage) {
		return ErrStageNotFound
	}

	return nil
}

// InsertStage places stage at idx.
func (b *Builder) InsertStage(idx int, stage *definition.Stage) error {
	if b.def == nil {
		return ErrNothingImported
	}

	return b.def.Insert(idx, stage)
}

// Build returns a publishable pipeline called name with a fresh pipeline id.
func (b *Builder) Build(name string) (*Pipeline, error) {
	if b.def == nil {
		return nil, ErrNothingImported
	}

	if name == "" {
		return nil, ErrNameMustBeSet
	}

	id := uuid.NewString()
	def := b.def.Clone()

	fields := map[string]any{
		"title":      name,
		"pipelineId": strings.NewReplacer(" ", "", "_", "").Replace(name) + id,
		"uuid":       id,
	}
	for key, value := range fields {
		err := def.Set(key, value)
		if err != nil {
			return nil, err
		}
	}

	pipe := &Pipeline{
		Name:       name,
		Definition: def,
		Rules:      append(definition.Rules(nil), b.rules...),
	}
	if b.node != nil {
		pipe.SdcID = b.node.ID
		pipe.SdcVersion = b.node.Version
	}

	return pipe, nil
}

// nextInstanceName returns <label without spaces>_NN with the lowest free NN.
func (b *Builder) nextInstanceName(label string) string {
	taken := make(map[string]struct{}, len(b.def.Stages))
	for _, stage := range b.def.Stages {
		taken[stage.InstanceName] = struct{}{}
	}

	prefix := strings.ReplaceAll(label, " ", "")

	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_%02d", prefix, n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

func instanceLabel(label, instanceName string) string {
	_, suffix, _ := strings.Cut(instanceName, definition.LabelSeparator)

	return label + " " + strings.TrimLeft(suffix, "0")
}
