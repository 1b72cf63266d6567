package constants

// RoutePrefix is the path prefix every function route is mounted under.
const RoutePrefix = "/make-server-08c24b4c"

// Routes, relative to RoutePrefix unless noted.
const (
	RouteHealth   = "/health"
	RouteRulebook = "/rulebook"
	RouteKV       = "/kv/{key}"
	RouteMetrics  = "/metrics" // unprefixed
)

// HTTP Methods
const (
	HTTPMethodGET     = "GET"
	HTTPMethodPOST    = "POST"
	HTTPMethodPUT     = "PUT"
	HTTPMethodDELETE  = "DELETE"
	HTTPMethodOPTIONS = "OPTIONS"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// HTTP Headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderRequestID     = "X-Request-Id"
	HeaderAPIKey        = "apikey"
	HeaderPrefer        = "Prefer"
)

// Cross-origin policy applied to every response.
const (
	CORSAllowOrigin   = "*"
	CORSAllowHeaders  = "Content-Type, Authorization"
	CORSAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	CORSExposeHeaders = "Content-Length"
	CORSMaxAgeSeconds = 600
)

// HealthStatusOK is the fixed liveness payload status.
const HealthStatusOK = "ok"
