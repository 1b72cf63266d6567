package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey rejects empty or whitespace-only keys.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidValue rejects values that are not a single JSON document.
	ErrInvalidValue = errors.New("value must be valid JSON")
)

// KV is opaque get/set/delete access to the managed store. Values are JSON
// documents; the store never looks inside them. A round trip preserves the
// document's meaning. The memory and SQL stores also keep its exact bytes; the
// REST store returns it compacted. Implementations are safe for concurrent
// use. Deleting an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewFromConfig opens the KV backend selected by cfg.Storage.Driver.
func NewFromConfig(ctx context.Context, cfg *config.Config) (KV, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "", constants.StorageDriverREST:
		return NewRESTStore(cfg.Backend.URL, cfg.Backend.ServiceKey, cfg.Backend.KVTable, &http.Client{Timeout: 15 * time.Second})
	case constants.StorageDriverMemory:
		return NewMemoryStore(), nil
	case constants.StorageDriverSQLite:
		return NewSqliteStore(ctx, cfg.Storage.DSN)
	case constants.StorageDriverPostgres:
		return NewPostgresStore(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func checkValue(value json.RawMessage) error {
	if len(value) == 0 || !json.Valid(value) {
		return ErrInvalidValue
	}
	return nil
}
