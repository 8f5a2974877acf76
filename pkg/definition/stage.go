package definition

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

const (
	instanceNameKey = "instanceName"
	inputLanesKey   = "inputLanes"
	outputLanesKey  = "outputLanes"
)

// LabelSeparator splits the human label of a stage from its disambiguating suffix.
const LabelSeparator = "_"

// Stage is a single processing unit of a pipeline definition.
type Stage struct {
	InstanceName string
	InputLanes   []string
	OutputLanes  []string

	fields map[string]json.RawMessage
}

// NewStage creates a stage without lanes.
func NewStage(instanceName string) *Stage {
	return &Stage{
		InstanceName: instanceName,
		InputLanes:   []string{},
		OutputLanes:  []string{},
		fields:       make(map[string]json.RawMessage),
	}
}

// Label returns the part of the instance name before the first underscore.
func (s *Stage) Label() string {
	label, _, _ := strings.Cut(s.InstanceName, LabelSeparator)

	return label
}

// Field returns the raw value of an untyped stage field, nil when absent.
func (s *Stage) Field(key string) json.RawMessage {
	return s.fields[key]
}

// Set stores value under key. The typed fields cannot be set this way.
func (s *Stage) Set(key string, value any) error {
	if isReserved(key) {
		return errors.Wrap(ErrReservedField, key)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "unable to encode field %s", key)
	}

	if s.fields == nil {
		s.fields = make(map[string]json.RawMessage)
	}

	s.fields[key] = raw

	return nil
}

// Clone returns a deep copy of the stage.
func (s *Stage) Clone() *Stage {
	clone := &Stage{
		InstanceName: s.InstanceName,
		InputLanes:   cloneLanes(s.InputLanes),
		OutputLanes:  cloneLanes(s.OutputLanes),
		fields:       make(map[string]json.RawMessage, len(s.fields)),
	}
	for key, value := range s.fields {
		clone.fields[key] = value
	}

	return clone
}

// UnmarshalJSON decodes a stage and fails with ErrMalformedStage when the instance name or one of
// the lane lists is missing.
func (s *Stage) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return errors.Wrap(ErrMalformedStage, err.Error())
	}

	raw, ok := fields[instanceNameKey]
	if !ok {
		return errors.Wrapf(ErrMalformedStage, "missing %s", instanceNameKey)
	}

	var instanceName string

	err = json.Unmarshal(raw, &instanceName)
	if err != nil || instanceName == "" {
		return errors.Wrapf(ErrMalformedStage, "invalid %s", instanceNameKey)
	}

	inputLanes, err := decodeLanes(fields, inputLanesKey)
	if err != nil {
		return errors.Wrap(err, instanceName)
	}

	outputLanes, err := decodeLanes(fields, outputLanesKey)
	if err != nil {
		return errors.Wrap(err, instanceName)
	}

	delete(fields, instanceNameKey)
	delete(fields, inputLanesKey)
	delete(fields, outputLanesKey)

	s.InstanceName = instanceName
	s.InputLanes = inputLanes
	s.OutputLanes = outputLanes
	s.fields = fields

	return nil
}

// MarshalJSON encodes the typed fields together with every untyped one.
func (s *Stage) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.fields)+3)
	for key, value := range s.fields {
		out[key] = value
	}

	out[instanceNameKey] = s.InstanceName
	out[inputLanesKey] = cloneLanes(s.InputLanes)
	out[outputLanesKey] = cloneLanes(s.OutputLanes)

	return json.Marshal(out)
}

func decodeLanes(fields map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedStage, "missing %s", key)
	}

	var lanes []string

	err := json.Unmarshal(raw, &lanes)
	if err != nil || lanes == nil {
		return nil, errors.Wrapf(ErrMalformedStage, "invalid %s", key)
	}

	return lanes, nil
}

func cloneLanes(lanes []string) []string {
	out := make([]string, len(lanes))
	copy(out, lanes)

	return out
}

func isReserved(key string) bool {
	return key == instanceNameKey || key == inputLanesKey || key == outputLanesKey
}
