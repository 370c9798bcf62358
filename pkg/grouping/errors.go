package grouping

import (
	"errors"
	"fmt"
)

// ErrEngineDestroyed is returned by configuration calls on a destroyed engine.
var ErrEngineDestroyed = errors.New("grouping engine destroyed")

// ConfigurationError reports an invalid grouping configuration. These are
// programmer errors and are surfaced at configuration time rather than
// coerced or retried.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid grouping configuration: %s", e.Reason)
}

func newConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
