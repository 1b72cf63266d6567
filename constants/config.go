package constants

// Configuration Files
const (
	ConfigFileName  = "promptgate.config.json"
	ConfigSchemaURL = "promptgate.schema.json"
)

// Environment Variables
const (
	EnvBackendURL  = "SUPABASE_URL"
	EnvServiceKey  = "SUPABASE_SERVICE_ROLE_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvDebug       = "PROMPTGATE_DEBUG"
	EnvPort        = "PORT"
	EnvConfigPath  = "PROMPTGATE_CONFIG"
)

// Storage Drivers
const (
	StorageDriverREST     = "rest"
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// Blob Drivers
const (
	BlobDriverFilesystem = "filesystem"
	BlobDriverS3         = "s3"
)

// Event Drivers
const (
	EventDriverMemory = "memory"
	EventDriverNATS   = "nats"
)

// Rulebook sources
const (
	RulebookSourceKV   = "kv"
	RulebookSourceBlob = "blob"
)

// Event topics
const (
	TopicRulebookRefreshed     = "rulebook.refreshed"
	TopicRulebookRefreshFailed = "rulebook.refresh_failed"
)

// Defaults
const (
	DefaultHTTPHost              = "0.0.0.0"
	DefaultHTTPPort              = 8080
	DefaultKVTable               = "kv_store"
	DefaultRulebookKey           = "rulebook"
	DefaultRulebookTTLMillis     = 300_000
	DefaultRulebookTimeoutMillis = 10_000
	DefaultServiceName           = "promptgate"
	DefaultSQLiteDSN             = ".promptgate/kv.db"
	DefaultBlobDir               = ".promptgate/files"
)
