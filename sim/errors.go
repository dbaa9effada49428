package sim

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by Run when the run context is cancelled before every
// client has been served.
var ErrAborted = errors.New("simulation aborted before all clients were served")

// errShopClosed is returned by blocking shop operations once the run context ends.
var errShopClosed = errors.New("shop closed")

// ConfigError reports an invalid configuration value. It is the only domain
// error class: a run that fails validation never creates any simulation state.
type ConfigError struct {
	Field  string // "servers", "seats", "clients", "service_time", ...
	Value  string // offending input as received
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
