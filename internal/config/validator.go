package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/askiada/sch-migrate/internal/logging"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%d validation errors:", len(e))

	for i, err := range e {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}

	return sb.String()
}

// Validate returns every invalid setting of c. Secrets are never echoed back.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.ServerURL == "" {
		errs = append(errs, ValidationError{Field: ServerURLKey, Value: "", Message: "must be set, e.g. with SCH_SERVER_URL"})
	} else if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{Field: ServerURLKey, Value: c.ServerURL, Message: "must be an absolute url"})
	}

	if c.Username == "" {
		errs = append(errs, ValidationError{Field: UsernameKey, Value: "", Message: "must be set, e.g. with SCH_USERNAME"})
	}

	if c.Password == "" {
		errs = append(errs, ValidationError{Field: PasswordKey, Value: "", Message: "must be set, e.g. with SCH_PASSWORD"})
	}

	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, ValidationError{Field: LogLevelKey, Value: c.LogLevel, Message: "must be one of DEBUG, INFO, WARN, ERROR"})
	}

	if c.Suffix == "" {
		errs = append(errs, ValidationError{Field: SuffixKey, Value: c.Suffix, Message: "must not be empty"})
	}

	if strings.Count(c.CommitMessage, "%s") != 1 || strings.Count(c.CommitMessage, "%") != 1 {
		errs = append(errs, ValidationError{Field: CommitMessageKey, Value: c.CommitMessage, Message: "must contain %s once and no other verb"})
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, ValidationError{Field: RequestTimeoutKey, Value: c.RequestTimeout, Message: "must not be negative"})
	}

	for i, mapping := range c.StageMappings {
		if strings.TrimSpace(mapping.From) == "" || strings.TrimSpace(mapping.To) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", StageMappingsKey, i),
				Value:   mapping.From + " -> " + mapping.To,
				Message: "from and to must be set",
			})
		}
	}

	return errs
}
