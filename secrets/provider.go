package secrets

import (
	"context"
	"errors"
)

// SecretsProvider resolves named secrets (service URL, service role key, ...).
type SecretsProvider interface {
	GetSecret(ctx context.Context, key string) (string, error)
	Close() error
}

// ErrSecretNotFound is returned (wrapped in a SecretError) when a key has no value.
var ErrSecretNotFound = errors.New("secret not found")

// SecretError provides structured error information
type SecretError struct {
	Provider string `json:"provider,omitempty"`
	Key      string `json:"key,omitempty"`
	Cause    error  `json:"-"`
}

func (e *SecretError) Error() string {
	msg := "secret " + e.Key
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *SecretError) Unwrap() error {
	return e.Cause
}

// Lookup resolves every key and returns the values that were found together
// with the keys that were missing. Errors other than ErrSecretNotFound abort.
func Lookup(ctx context.Context, p SecretsProvider, keys ...string) (map[string]string, []string, error) {
	found := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		v, err := p.GetSecret(ctx, key)
		switch {
		case err == nil:
			found[key] = v
		case errors.Is(err, ErrSecretNotFound):
			missing = append(missing, key)
		default:
			return nil, nil, err
		}
	}
	return found, missing, nil
}
