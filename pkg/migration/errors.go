package migration

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrClientMustBeSet  = errors.New("control hub client must be set")
	ErrNoPipelines      = errors.New("at least one pipeline name must be given")
	ErrNoAuthoringNode  = errors.New("pipeline has no authoring data collector")
	ErrSuffixMustBeSet  = errors.New("new name suffix must be set")
	ErrInvalidCommitMsg = errors.New("commit message must contain a single %s verb")
)

// RunError lists the pipelines that failed during a run that kept going.
type RunError struct {
	Failures []error
}

func (e *RunError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}

	return fmt.Sprintf("unable to migrate %d of the pipelines: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap returns the failures, so errors.Is and errors.As look into each of them.
func (e *RunError) Unwrap() []error {
	return e.Failures
}
