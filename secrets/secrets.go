package secrets

import (
	"fmt"
	"strings"
)

// NewSecretsProvider returns the provider for driver. Only the environment
// driver ships today; prefix is prepended to every lookup.
func NewSecretsProvider(driver, prefix string) (SecretsProvider, error) {
	switch strings.ToLower(driver) {
	case "", "env":
		return NewEnvSecretsProvider(prefix), nil
	default:
		return nil, fmt.Errorf("unsupported secrets driver: %s", driver)
	}
}
