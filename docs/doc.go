// Package docs provides generated OpenAPI documentation.
//
// FireForm API
//
//	@title			FireForm API
//	@version		1.0
//	@description	Extract report fields from incident transcripts and fill PDF or LaTeX forms.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/fireform
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

import _ "embed"

//go:generate swag init -g ../cmd/fireform/serve.go -o ./swagger --outputTypes json --parseInternal

//go:embed swagger/swagger.json
var swaggerJSON []byte

// SwaggerJSON returns the embedded OpenAPI document.
func SwaggerJSON() []byte {
	return swaggerJSON
}
