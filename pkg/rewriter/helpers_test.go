package rewriter_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/definition"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

func stage(t *testing.T, name string, inputLanes, outputLanes []string) *definition.Stage {
	t.Helper()

	st := definition.NewStage(name)
	st.InputLanes = inputLanes
	st.OutputLanes = outputLanes

	return st
}

// linear builds a definition where every stage feeds the next one.
func linear(t *testing.T, names ...string) *definition.Pipeline {
	t.Helper()

	stages := make([]*definition.Stage, len(names))
	for i, name := range names {
		in := []string{}
		if i > 0 {
			in = []string{names[i-1] + "OutputLane"}
		}

		out := []string{}
		if i < len(names)-1 {
			out = []string{name + "OutputLane"}
		}

		stages[i] = stage(t, name, in, out)
	}

	return definition.NewPipeline(stages...)
}

// definitionBuilder adds stages at the end of def, the way a pipeline builder does.
type definitionBuilder struct {
	def       *definition.Pipeline
	count     int
	addErr    error
	removeErr error
}

func newBuilder(t *testing.T, def *definition.Pipeline) *definitionBuilder {
	t.Helper()

	return &definitionBuilder{def: def}
}

func (b *definitionBuilder) AddStage(label string) (*definition.Stage, error) {
	if b.addErr != nil {
		return nil, b.addErr
	}

	b.count++
	st := definition.NewStage(fmt.Sprintf("%s_%02d", strings.ReplaceAll(label, " ", ""), b.count))
	b.def.Stages = append(b.def.Stages, st)

	return st, nil
}

func (b *definitionBuilder) RemoveStage(st *definition.Stage) error {
	if b.removeErr != nil {
		return b.removeErr
	}

	if !b.def.Remove(st) {
		return errors.New("stage not in definition")
	}

	return nil
}

func (b *definitionBuilder) InsertStage(idx int, st *definition.Stage) error {
	return b.def.Insert(idx, st)
}

var _ rewriter.StageBuilder = (*definitionBuilder)(nil)

func labels(def *definition.Pipeline) []string {
	out := make([]string, len(def.Stages))
	for i, st := range def.Stages {
		out[i] = st.Label()
	}

	return out
}
