package drawer_test

import (
	"testing"

	"github.com/askiada/sch-migrate/pkg/definition"
)

func linear(t *testing.T, names ...string) *definition.Pipeline {
	t.Helper()

	stages := make([]*definition.Stage, len(names))
	for i, name := range names {
		stage := definition.NewStage(name)
		if i > 0 {
			stage.InputLanes = []string{names[i-1] + "OutputLane"}
		}

		if i < len(names)-1 {
			stage.OutputLanes = []string{name + "OutputLane"}
		}

		stages[i] = stage
	}

	return definition.NewPipeline(stages...)
}
