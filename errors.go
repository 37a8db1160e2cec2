package nscache

import (
	"errors"
	"fmt"
)

var (
	// ErrEncode wraps codec failures when a value cannot be serialized.
	ErrEncode = errors.New("nscache: failed to encode value")

	// ErrHealthcheckFailed is returned by the Healthcheck closure when the
	// store is unreachable.
	ErrHealthcheckFailed = errors.New("nscache: healthcheck failed")
)

// ConfigError reports an invalid Options field at construction or
// reconfiguration time. Configuration problems fail fast here, never at
// first use.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("nscache: invalid config field %s: %s", e.Field, e.Reason)
}
