package rewriter

import "github.com/pkg/errors"

var (
	ErrDefinitionMustBeSet = errors.New("definition must be set")
	ErrBuilderMustBeSet    = errors.New("stage builder must be set")
	ErrInvalidMapping      = errors.New("invalid stage mapping")
	ErrPlanMismatch        = errors.New("plan does not match definition")
)
