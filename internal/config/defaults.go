package config

import "time"

// Relay default configuration constants
const (
	// Provider defaults
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "whisper-1"
	DefaultOpenAITimeout = 60 * time.Second

	// Network defaults
	DefaultHTTPHost     = "localhost"
	DefaultHTTPPort     = "5000"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 120 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	// WriteTimeoutHeadroom is kept between the provider timeout and the
	// server write timeout for reading the upload and writing the reply
	WriteTimeoutHeadroom = 30 * time.Second

	// Request defaults
	DefaultMaxUploadMB = 50
	DefaultLanguage    = "en"
	DefaultUploadsDir  = "uploads"

	DefaultEnvironment = EnvironmentDevelopment
)

// Environment names with special handling
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Default returns a configuration populated with defaults only
func Default() *Config {
	return &Config{
		Environment: DefaultEnvironment,
		OpenAI: OpenAIConfig{
			BaseURL: DefaultOpenAIBaseURL,
			Model:   DefaultOpenAIModel,
			Timeout: DefaultOpenAITimeout,
		},
		Server: ServerConfig{
			Host:         DefaultHTTPHost,
			Port:         DefaultHTTPPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxUploadMB:  DefaultMaxUploadMB,
		},
		Relay: RelayConfig{
			UploadsDir:      DefaultUploadsDir,
			DefaultLanguage: DefaultLanguage,
		},
	}
}
