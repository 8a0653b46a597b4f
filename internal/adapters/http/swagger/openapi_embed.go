package swagger

import _ "embed"

// OpenAPI is the API description served on /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
