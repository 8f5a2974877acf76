package definition

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Rules is the rules definition attached to a pipeline. It is never interpreted.
type Rules json.RawMessage

// ParseRules validates a serialized rules definition. An empty string yields empty rules.
func ParseRules(encoded string) (Rules, error) {
	if encoded == "" {
		return nil, nil
	}

	if !json.Valid([]byte(encoded)) {
		return nil, ErrMalformedRules
	}

	return Rules(encoded), nil
}

// String returns the serialized rules, empty when the pipeline has none.
func (r Rules) String() string {
	return string(r)
}

// MarshalJSON returns the rules unchanged, null when empty.
func (r Rules) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}

	return r, nil
}

// UnmarshalJSON keeps a copy of data.
func (r *Rules) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("definition.Rules: UnmarshalJSON on nil pointer")
	}

	*r = append((*r)[0:0], data...)

	return nil
}
