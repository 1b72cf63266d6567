package docs

import _ "embed"

// ConfigSchema is the JSON-Schema every promptgate config file is validated against.
//
//go:embed promptgate.schema.json
var ConfigSchema string
