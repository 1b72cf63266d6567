package config

import "github.com/awantoch/promptgate/constants"

// Default returns a config with every optional field populated. Backend
// URL and service key stay empty; they have no sensible default.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{KVTable: constants.DefaultKVTable},
		Storage: StorageConfig{Driver: constants.StorageDriverREST},
		Blob: BlobConfig{
			Driver:    constants.BlobDriverFilesystem,
			Directory: constants.DefaultBlobDir,
		},
		Event: EventConfig{Driver: constants.EventDriverMemory},
		HTTP: HTTPConfig{
			Host: constants.DefaultHTTPHost,
			Port: constants.DefaultHTTPPort,
		},
		Log: LogConfig{Level: "info"},
		Rulebook: RulebookConfig{
			Source:        constants.RulebookSourceKV,
			Key:           constants.DefaultRulebookKey,
			TTLMillis:     constants.DefaultRulebookTTLMillis,
			TimeoutMillis: constants.DefaultRulebookTimeoutMillis,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}
