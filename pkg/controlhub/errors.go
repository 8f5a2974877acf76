package controlhub

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrMissingServerURL      = errors.New("control hub server url must be set")
	ErrMissingCredentials    = errors.New("control hub username and password must be set")
	ErrUnauthorized          = errors.New("control hub rejected the credentials")
	ErrNotFound              = errors.New("control hub resource not found")
	ErrPipelineNotFound      = errors.New("pipeline not found")
	ErrDataCollectorNotFound = errors.New("data collector not found")
	ErrUnknownStage          = errors.New("stage not available on the authoring data collector")
	ErrNothingImported       = errors.New("no pipeline imported in builder")
	ErrStageNotFound         = errors.New("stage not found in builder")
	ErrNameMustBeSet         = errors.New("pipeline name must be set")
	ErrDefinitionMustBeSet   = errors.New("pipeline definition must be set")
)

// APIError is returned for any non 2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is matches ErrNotFound on 404 and ErrUnauthorized on 401 and 403.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}
