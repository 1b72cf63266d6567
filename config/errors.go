package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is fatal: the process must not start serving traffic.
// Missing lists required settings (by environment variable name) that had
// no value; Cause carries any other validation failure.
type ConfigurationError struct {
	Missing []string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required "+strings.Join(e.Missing, ", "))
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return fmt.Sprintf("configuration error: %s", strings.Join(parts, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
