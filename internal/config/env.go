package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names consumed by the relay
const (
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvConfigFile       = "RELAY_CONFIG"
	EnvEnvironment      = "RELAY_ENV"
	EnvHost             = "RELAY_HOST"
	EnvPort             = "RELAY_PORT"
	EnvUploadsDir       = "RELAY_UPLOADS_DIR"
	EnvDefaultLanguage  = "RELAY_DEFAULT_LANGUAGE"
	EnvProviderTimeout  = "RELAY_PROVIDER_TIMEOUT"
	EnvMaxUploadMB      = "RELAY_MAX_UPLOAD_MB"
	EnvStrictBufferMIME = "RELAY_STRICT_BUFFER_MIME"
)

// Config is built once at process start and passed explicitly to the
// components that need it.
type Config struct {
	Environment string       `yaml:"environment"`
	OpenAI      OpenAIConfig `yaml:"openai"`
	Server      ServerConfig `yaml:"server"`
	Relay       RelayConfig  `yaml:"relay"`
}

// OpenAIConfig holds the transcription provider settings
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxUploadMB  int           `yaml:"max_upload_mb"`
}

// RelayConfig holds submission handling settings
type RelayConfig struct {
	UploadsDir       string `yaml:"uploads_dir"`
	DefaultLanguage  string `yaml:"default_language"`
	StrictBufferMIME bool   `yaml:"strict_buffer_mime"`
}

// HasAPIKey reports whether a provider credential is configured
func (c *Config) HasAPIKey() bool {
	return c.OpenAI.APIKey != ""
}

// IsProduction reports whether the relay runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Address returns the host:port the HTTP server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// LoadEnv loads environment variables from the first .env file found.
// It returns the path that was loaded, or an empty string when none exists.
func LoadEnv() (string, error) {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
	}

	// Environment variables might be set system-wide, so a missing file is fine
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}

	return "", nil
}

// LoadFile overlays a YAML configuration file onto cfg
func LoadFile(cfg *Config, path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Load builds the configuration: defaults, then the optional YAML file
// named by path (or RELAY_CONFIG), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.deriveWriteTimeout()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// InitializeConfig loads .env and builds the configuration.
// This is the main entry point for configuration loading
func InitializeConfig(path string) (*Config, string, error) {
	envPath, err := LoadEnv()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, envPath, err
	}
	return cfg, envPath, nil
}

// deriveWriteTimeout stretches a default write timeout past the provider
// timeout. An explicitly configured one is left for Validate to check.
func (c *Config) deriveWriteTimeout() {
	if c.Server.WriteTimeout == DefaultWriteTimeout && c.Server.WriteTimeout <= c.OpenAI.Timeout {
		c.Server.WriteTimeout = c.OpenAI.Timeout + WriteTimeoutHeadroom
	}
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)); v != "" {
		cfg.OpenAI.APIKey = v
	}
	cfg.OpenAI.BaseURL = getEnvOrDefault(EnvOpenAIBaseURL, cfg.OpenAI.BaseURL)
	cfg.Environment = getEnvOrDefault(EnvEnvironment, cfg.Environment)
	cfg.Server.Host = getEnvOrDefault(EnvHost, cfg.Server.Host)
	cfg.Server.Port = getEnvOrDefault(EnvPort, cfg.Server.Port)
	cfg.Relay.UploadsDir = getEnvOrDefault(EnvUploadsDir, cfg.Relay.UploadsDir)
	cfg.Relay.DefaultLanguage = getEnvOrDefault(EnvDefaultLanguage, cfg.Relay.DefaultLanguage)

	if v := os.Getenv(EnvProviderTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvProviderTimeout, err)
		}
		cfg.OpenAI.Timeout = d
	}
	if v := os.Getenv(EnvMaxUploadMB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxUploadMB, err)
		}
		cfg.Server.MaxUploadMB = n
	}
	if v := os.Getenv(EnvStrictBufferMIME); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStrictBufferMIME, err)
		}
		cfg.Relay.StrictBufferMIME = b
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
