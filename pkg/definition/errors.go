package definition

import "github.com/pkg/errors"

var (
	ErrMalformedDefinition = errors.New("malformed pipeline definition")
	ErrMalformedStage      = errors.New("malformed stage")
	ErrMalformedRules      = errors.New("malformed rules definition")
	ErrReservedField       = errors.New("field is managed by the stage and cannot be set directly")
	ErrIndexOutOfRange     = errors.New("stage index out of range")
	ErrStageMustBeSet      = errors.New("stage must be set")
)
