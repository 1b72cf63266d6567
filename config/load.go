package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/secrets"
)

// Load builds the runtime config: defaults, then the config file, then the
// environment. An empty path means the default file name, which may be
// absent; an explicit path must exist. The result is validated and any
// problem is returned as a *ConfigurationError.
func Load(ctx context.Context, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = constants.ConfigFileName
	}
	cfg, err := LoadConfig(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg = Default()
	default:
		return nil, &ConfigurationError{Cause: err}
	}
	if err := ApplyEnv(ctx, cfg, secrets.NewEnvSecretsProvider("")); err != nil {
		return nil, err
	}
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment-provided values on cfg. Secrets come through
// p so the backend credentials can live in any supported secrets backend.
func ApplyEnv(ctx context.Context, cfg *Config, p secrets.SecretsProvider) error {
	found, _, err := secrets.Lookup(ctx, p, constants.EnvBackendURL, constants.EnvServiceKey)
	if err != nil {
		return &ConfigurationError{Cause: fmt.Errorf("resolve backend secrets: %w", err)}
	}
	if v, ok := found[constants.EnvBackendURL]; ok {
		cfg.Backend.URL = v
	}
	if v, ok := found[constants.EnvServiceKey]; ok {
		cfg.Backend.ServiceKey = v
	}

	// DATABASE_URL picks the storage driver by scheme
	if databaseURL := strings.TrimSpace(os.Getenv(constants.EnvDatabaseURL)); databaseURL != "" {
		if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
			cfg.Storage.Driver = constants.StorageDriverPostgres
		} else {
			cfg.Storage.Driver = constants.StorageDriverSQLite
		}
		cfg.Storage.DSN = databaseURL
	}

	if port := strings.TrimSpace(os.Getenv(constants.EnvPort)); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return &ConfigurationError{Cause: fmt.Errorf("invalid %s %q: %w", constants.EnvPort, port, err)}
		}
		cfg.HTTP.Port = n
	}
	if os.Getenv(constants.EnvDebug) != "" {
		cfg.Log.Level = "debug"
	}
	return nil
}

// normalize restores defaults for optional fields a config file zeroed out.
func normalize(cfg *Config) {
	d := Default()
	if cfg.Backend.KVTable == "" {
		cfg.Backend.KVTable = d.Backend.KVTable
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = d.Storage.Driver
	}
	if cfg.Blob.Driver == "" {
		cfg.Blob.Driver = d.Blob.Driver
	}
	if cfg.Blob.Directory == "" {
		cfg.Blob.Directory = d.Blob.Directory
	}
	if cfg.Event.Driver == "" {
		cfg.Event.Driver = d.Event.Driver
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = d.HTTP.Port
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Rulebook.Source == "" {
		cfg.Rulebook.Source = d.Rulebook.Source
	}
	if cfg.Rulebook.Key == "" {
		cfg.Rulebook.Key = d.Rulebook.Key
	}
	if cfg.Rulebook.TTLMillis <= 0 {
		cfg.Rulebook.TTLMillis = d.Rulebook.TTLMillis
	}
	if cfg.Rulebook.TimeoutMillis <= 0 {
		cfg.Rulebook.TimeoutMillis = d.Rulebook.TimeoutMillis
	}
}

// Validate checks that cfg can start a server. Every missing required
// secret is reported at once.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigurationError{Cause: errors.New("nil config")}
	}
	var missing []string
	if strings.TrimSpace(cfg.Backend.URL) == "" {
		missing = append(missing, constants.EnvBackendURL)
	}
	if strings.TrimSpace(cfg.Backend.ServiceKey) == "" {
		missing = append(missing, constants.EnvServiceKey)
	}

	var problems []error
	if cfg.Backend.URL != "" {
		u, err := url.Parse(cfg.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Errorf("%s must be an absolute http(s) URL, got %q", constants.EnvBackendURL, cfg.Backend.URL))
		}
	}
	switch cfg.Storage.Driver {
	case constants.StorageDriverSQLite, constants.StorageDriverPostgres:
		if cfg.Storage.DSN == "" {
			problems = append(problems, fmt.Errorf("storage driver %s requires a dsn", cfg.Storage.Driver))
		}
	case constants.StorageDriverREST, constants.StorageDriverMemory:
	default:
		problems = append(problems, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver))
	}
	if cfg.Blob.Driver == constants.BlobDriverS3 && (cfg.Blob.Bucket == "" || cfg.Blob.Region == "") {
		problems = append(problems, errors.New("s3 blob driver requires bucket and region"))
	}
	if cfg.Event.Driver == constants.EventDriverNATS && cfg.Event.URL == "" {
		problems = append(problems, errors.New("nats event driver requires url"))
	}
	switch cfg.Rulebook.Source {
	case constants.RulebookSourceKV:
	case constants.RulebookSourceBlob:
		if cfg.Rulebook.URL == "" {
			problems = append(problems, errors.New("blob rulebook source requires rulebook.url"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported rulebook source: %s", cfg.Rulebook.Source))
	}

	if len(missing) == 0 && len(problems) == 0 {
		return nil
	}
	return &ConfigurationError{Missing: missing, Cause: errors.Join(problems...)}
}
