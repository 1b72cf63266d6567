package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/docs"
)

type Config struct {
	Backend  BackendConfig  `json:"backend"`
	Storage  StorageConfig  `json:"storage"`
	Blob     BlobConfig     `json:"blob"`
	Event    EventConfig    `json:"event"`
	HTTP     HTTPConfig     `json:"http"`
	Log      LogConfig      `json:"log"`
	Rulebook RulebookConfig `json:"rulebook"`
	Tracing  *TracingConfig `json:"tracing,omitempty"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// BackendConfig points at the managed backend-as-a-service project.
// URL and ServiceKey are required; both normally come from the environment.
type BackendConfig struct {
	URL        string `json:"url"`
	ServiceKey string `json:"service_key"`
	KVTable    string `json:"kv_table,omitempty"`
}

type StorageConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type BlobConfig struct {
	Driver    string `json:"driver"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Directory string `json:"directory"`
}

type EventConfig struct {
	Driver    string `json:"driver"`
	URL       string `json:"url"`
	ClusterID string `json:"cluster_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
}

type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns host:port suitable for net/http.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

type LogConfig struct {
	Level string `json:"level"`
}

// RulebookConfig selects where the rulebook comes from and how long it is cached.
type RulebookConfig struct {
	Source        string `json:"source"`
	Key           string `json:"key"`
	URL           string `json:"url"`
	TTLMillis     int64  `json:"ttl_ms"`
	TimeoutMillis int64  `json:"fetch_timeout_ms"`
}

func (r RulebookConfig) TTL() time.Duration {
	return time.Duration(r.TTLMillis) * time.Millisecond
}

func (r RulebookConfig) FetchTimeout() time.Duration {
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

type TracingConfig struct {
	ServiceName string `json:"service_name"`
	Exporter    string `json:"exporter"`
	Endpoint    string `json:"endpoint"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// LoadConfig reads a JSON or YAML (.yaml/.yml) config file, validates it
// against the embedded schema and overlays it on the defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

func validateSchema(raw []byte) error {
	schema, err := jsonschema.CompileString(constants.ConfigSchemaURL, docs.ConfigSchema)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}
