package definition

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
)

const (
	stagesKey = "stages"
	titleKey  = "title"
)

// Pipeline is a pipeline definition: an ordered list of stages plus opaque top level fields.
type Pipeline struct {
	Stages []*Stage

	fields map[string]json.RawMessage
}

// NewPipeline creates a definition holding the given stages.
func NewPipeline(stages ...*Stage) *Pipeline {
	return &Pipeline{
		Stages: stages,
		fields: make(map[string]json.RawMessage),
	}
}

// ParsePipeline decodes a serialized pipeline definition.
func ParsePipeline(encoded string) (*Pipeline, error) {
	pipe := &Pipeline{}

	err := pipe.UnmarshalJSON([]byte(encoded))
	if err != nil {
		return nil, err
	}

	return pipe, nil
}

// Encode serializes the definition.
func (p *Pipeline) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "unable to encode pipeline definition")
	}

	return string(data), nil
}

// Title returns the title field. ok is false when the title is absent or not a string.
func (p *Pipeline) Title() (string, bool) {
	raw, found := p.fields[titleKey]
	if !found {
		return "", false
	}

	var title *string

	err := json.Unmarshal(raw, &title)
	if err != nil || title == nil {
		return "", false
	}

	return *title, true
}

// Field returns the raw value of a top level field, nil when absent.
func (p *Pipeline) Field(key string) json.RawMessage {
	return p.fields[key]
}

// Set stores value under key. The stage list cannot be set this way.
func (p *Pipeline) Set(key string, value any) error {
	if key == stagesKey {
		return errors.Wrap(ErrReservedField, key)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "unable to encode field %s", key)
	}

	if p.fields == nil {
		p.fields = make(map[string]json.RawMessage)
	}

	p.fields[key] = raw

	return nil
}

// InstanceNames returns the stage instance names in order.
func (p *Pipeline) InstanceNames() []string {
	names := make([]string, len(p.Stages))
	for i, stage := range p.Stages {
		names[i] = stage.InstanceName
	}

	return names
}

// Index returns the position of stage, compared by reference, or -1.
func (p *Pipeline) Index(stage *Stage) int {
	for i, current := range p.Stages {
		if current == stage {
			return i
		}
	}

	return -1
}

// Remove removes stage by reference and reports whether it was present.
func (p *Pipeline) Remove(stage *Stage) bool {
	idx := p.Index(stage)
	if idx < 0 {
		return false
	}

	p.Stages = slices.Delete(p.Stages, idx, idx+1)

	return true
}

// Delete removes the stage at idx and returns it.
func (p *Pipeline) Delete(idx int) (*Stage, error) {
	if idx < 0 || idx >= len(p.Stages) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "delete at %d of %d", idx, len(p.Stages))
	}

	stage := p.Stages[idx]
	p.Stages = slices.Delete(p.Stages, idx, idx+1)

	return stage, nil
}

// Insert places stage at idx, shifting the following stages to the right.
func (p *Pipeline) Insert(idx int, stage *Stage) error {
	if stage == nil {
		return ErrStageMustBeSet
	}

	if idx < 0 || idx > len(p.Stages) {
		return errors.Wrapf(ErrIndexOutOfRange, "insert at %d of %d", idx, len(p.Stages))
	}

	p.Stages = slices.Insert(p.Stages, idx, stage)

	return nil
}

// Clone returns a deep copy of the definition.
func (p *Pipeline) Clone() *Pipeline {
	clone := &Pipeline{
		Stages: make([]*Stage, len(p.Stages)),
		fields: make(map[string]json.RawMessage, len(p.fields)),
	}
	for i, stage := range p.Stages {
		clone.Stages[i] = stage.Clone()
	}

	for key, value := range p.fields {
		clone.fields[key] = value
	}

	return clone
}

// UnmarshalJSON decodes a definition. Each stage must be well formed.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return errors.Wrap(ErrMalformedDefinition, err.Error())
	}

	raw, ok := fields[stagesKey]
	if !ok {
		return errors.Wrapf(ErrMalformedDefinition, "missing %s", stagesKey)
	}

	var rawStages []json.RawMessage

	err = json.Unmarshal(raw, &rawStages)
	if err != nil || rawStages == nil {
		return errors.Wrapf(ErrMalformedDefinition, "invalid %s", stagesKey)
	}

	stages := make([]*Stage, len(rawStages))
	for i, rawStage := range rawStages {
		stage := &Stage{}

		err := stage.UnmarshalJSON(rawStage)
		if err != nil {
			return errors.Wrapf(err, "stage %d", i)
		}

		stages[i] = stage
	}

	delete(fields, stagesKey)

	p.Stages = stages
	p.fields = fields

	return nil
}

// MarshalJSON encodes the stages together with every other top level field.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.fields)+1)
	for key, value := range p.fields {
		out[key] = value
	}

	stages := p.Stages
	if stages == nil {
		stages = []*Stage{}
	}

	out[stagesKey] = stages

	return json.Marshal(out)
}
