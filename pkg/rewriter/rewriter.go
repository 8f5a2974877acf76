package rewriter

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/definition"
)

// Replacement records a stage scheduled for replacement.
type Replacement struct {
	// Label is the label of the new stage.
	Label string `yaml:"label"`
	// Replaced is the instance name of the stage being replaced.
	Replaced string `yaml:"replaced"`
	// Index is the position of the replaced stage before any deletion.
	Index       int      `yaml:"index"`
	InputLanes  []string `yaml:"input_lanes"`
	OutputLanes []string `yaml:"output_lanes"`
}

// From returns the label of the replaced stage.
func (r Replacement) From() string {
	label, _, _ := strings.Cut(r.Replaced, definition.LabelSeparator)

	return label
}

// StageBuilder edits the definition being spliced. AddStage creates a stage by label and places it
// in the definition, RemoveStage and InsertStage move it, compared by reference.
type StageBuilder interface {
	AddStage(label string) (*definition.Stage, error)
	RemoveStage(stage *definition.Stage) error
	InsertStage(idx int, stage *definition.Stage) error
}

// Plan lists, in stage order, the stages of def whose label is mapped.
func Plan(def *definition.Pipeline, mapping Mapping) ([]Replacement, error) {
	if def == nil {
		return nil, ErrDefinitionMustBeSet
	}

	plan := []Replacement{}

	for idx, stage := range def.Stages {
		if stage == nil {
			return nil, errors.Wrapf(definition.ErrMalformedStage, "stage %d is nil", idx)
		}

		label, ok := mapping.Lookup(stage.Label())
		if !ok {
			continue
		}

		plan = append(plan, Replacement{
			Label:       label,
			Replaced:    stage.InstanceName,
			Index:       idx,
			InputLanes:  cloneLanes(stage.InputLanes),
			OutputLanes: cloneLanes(stage.OutputLanes),
		})
	}

	return plan, nil
}

// Strip deletes the planned stages from def, highest index first, and returns them in deletion
// order.
func Strip(def *definition.Pipeline, plan []Replacement) ([]*definition.Stage, error) {
	if def == nil {
		return nil, ErrDefinitionMustBeSet
	}

	removed := make([]*definition.Stage, 0, len(plan))

	for i := len(plan) - 1; i >= 0; i-- {
		rpl := plan[i]
		if rpl.Index >= len(def.Stages) || def.Stages[rpl.Index].InstanceName != rpl.Replaced {
			return nil, errors.Wrapf(ErrPlanMismatch, "no stage %s at %d", rpl.Replaced, rpl.Index)
		}

		stage, err := def.Delete(rpl.Index)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to delete stage %s", rpl.Replaced)
		}

		removed = append(removed, stage)
	}

	return removed, nil
}

// Splice adds one new stage per planned replacement through builder, in ascending index order, at
// the recorded index and with the recorded lanes.
func Splice(plan []Replacement, builder StageBuilder) ([]*definition.Stage, error) {
	if builder == nil {
		return nil, ErrBuilderMustBeSet
	}

	added := make([]*definition.Stage, 0, len(plan))

	for _, rpl := range plan {
		stage, err := builder.AddStage(rpl.Label)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %s", rpl.Label)
		}

		err = builder.RemoveStage(stage)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to remove stage %s", stage.InstanceName)
		}

		err = builder.InsertStage(rpl.Index, stage)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to insert stage %s", stage.InstanceName)
		}

		stage.InputLanes = cloneLanes(rpl.InputLanes)
		stage.OutputLanes = cloneLanes(rpl.OutputLanes)

		added = append(added, stage)
	}

	return added, nil
}

// Rewrite replaces, in place, every mapped stage of def with a stage made by builder. builder must
// edit def.
func Rewrite(def *definition.Pipeline, mapping Mapping, builder StageBuilder) ([]Replacement, error) {
	if builder == nil {
		return nil, ErrBuilderMustBeSet
	}

	plan, err := Plan(def, mapping)
	if err != nil {
		return nil, errors.Wrap(err, "unable to plan replacements")
	}

	_, err = Strip(def, plan)
	if err != nil {
		return nil, errors.Wrap(err, "unable to strip stages")
	}

	_, err = Splice(plan, builder)
	if err != nil {
		return nil, errors.Wrap(err, "unable to splice stages")
	}

	return plan, nil
}

func cloneLanes(lanes []string) []string {
	out := make([]string, len(lanes))
	copy(out, lanes)

	return out
}
