package endpoints

import (
	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager    *defra.DockerManager
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Novel endpoints
		&ImportNovelEndpoint{},
		&ListNovelsEndpoint{},
		&GetNovelEndpoint{},
		&DeleteNovelEndpoint{},
		&ListChaptersEndpoint{},
		&GetChapterEndpoint{},

		// Translation job endpoints
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&PauseJobEndpoint{},
		&ResumeJobEndpoint{},

		// Glossary endpoints
		&ListGlossaryEndpoint{},
		&CreateGlossaryEndpoint{},
		&UpdateGlossaryEndpoint{},
		&DeleteGlossaryEndpoint{},
		&BulkDeleteGlossaryEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}

// JobCommands returns endpoints for job operations, grouped under the
// "jobs" CLI subcommand.
func JobCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&PauseJobEndpoint{},
		&ResumeJobEndpoint{},
	}
}

// NovelCommands returns endpoints for novel operations, grouped under the
// "novels" CLI subcommand.
func NovelCommands() []api.Endpoint {
	return []api.Endpoint{
		&ImportNovelEndpoint{},
		&ListNovelsEndpoint{},
		&GetNovelEndpoint{},
		&DeleteNovelEndpoint{},
		&ListChaptersEndpoint{},
		&GetChapterEndpoint{},
	}
}

// GlossaryCommands returns endpoints for glossary operations, grouped under
// the "glossary" CLI subcommand.
func GlossaryCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListGlossaryEndpoint{},
		&CreateGlossaryEndpoint{},
		&UpdateGlossaryEndpoint{},
		&DeleteGlossaryEndpoint{},
		&BulkDeleteGlossaryEndpoint{},
	}
}

// SettingsCommands returns endpoints for settings operations, grouped under
// the "settings" CLI subcommand.
func SettingsCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
	}
}
