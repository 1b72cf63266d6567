package constants

// HTTP Response Messages
const (
	ResponseRouteNotFound       = "route not found"
	ResponseUnauthorized        = "unauthorized"
	ResponseKeyNotFound         = "key not found"
	ResponseInvalidJSONBody     = "body must be a JSON document"
	ResponseBodyTooLarge        = "body too large"
	ResponseKVUnavailable       = "kv store unavailable"
	ResponseRulebookUnavailable = "rulebook unavailable"
	ResponseRulebookTimeout     = "rulebook source timed out"
	ResponseMisconfigured       = "service misconfigured"
	ResponseInternalError       = "internal error"
)
