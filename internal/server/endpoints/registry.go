package endpoints

import (
	"github.com/jackzampolin/fireform/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Extraction and document endpoints
		&ExtractEndpoint{},
		&FillEndpoint{},
		&RenderEndpoint{},

		// Template endpoints
		&ListTemplatesEndpoint{},
		&GetTemplateEndpoint{},
		&SaveTemplateEndpoint{},
		&DeleteTemplateEndpoint{},

		&ModelsEndpoint{},

		// API documentation
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
