package drawer

import (
	"context"

	"github.com/askiada/sch-migrate/pkg/definition"
)

// Drawer is an interface that defines the methods for drawing pipeline definitions.
type Drawer interface {
	// AddPipeline adds the stage graph of def under name. Stages at the highlighted positions are
	// filled with a colour, the same position getting the same colour across pipelines.
	AddPipeline(name string, def *definition.Pipeline, highlighted []int) error
	// Draw writes one file per added pipeline.
	Draw(ctx context.Context) error
}
