package config

// Config holds novelarc configuration.
// Stored at: {home}/config.yaml
type Config struct {
	// APIKeys is the credential pool for the translation provider. Values
	// support ${ENV_VAR} syntax.
	APIKeys []string `mapstructure:"api_keys" yaml:"api_keys"`

	Provider ProviderCfg  `mapstructure:"provider" yaml:"provider"`
	Defra    DefraConfig  `mapstructure:"defra" yaml:"defra"`
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
}

// ProviderCfg configures the LLM provider used for translation and term
// extraction.
type ProviderCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`   // "gemini", "openai"
	Model          string  `mapstructure:"model" yaml:"model"` // Model name
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: novelarc-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIKeys: []string{"${GEMINI_API_KEY}"},
		Provider: ProviderCfg{
			Type:           "gemini",
			Model:          "gemini-2.5-flash",
			RateLimit:      2.0,
			TimeoutSeconds: 300,
		},
		Defra: DefraConfig{
			ContainerName: "novelarc-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// ResolveAPIKeys expands ${ENV_VAR} references in the credential pool and
// drops entries that resolve to an empty string.
func (c *Config) ResolveAPIKeys() []string {
	out := make([]string, 0, len(c.APIKeys))
	for _, key := range c.APIKeys {
		if resolved := ResolveEnvVars(key); resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}

// ListenAddr returns the host:port the API server binds.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
