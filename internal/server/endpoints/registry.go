package endpoints

import (
	"github.com/jackzampolin/lector/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Extraction endpoints
		&OptionsEndpoint{},
		&ExtractEndpoint{},

		// Page endpoints
		&FormEndpoint{},
		&SubmitEndpoint{},
		&DownloadEndpoint{},

		// Static files and API docs
		&StaticEndpoint{},
		&SwaggerEndpoint{},
	}
}
