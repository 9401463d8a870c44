package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate checks the configuration for values the relay cannot run with.
// A missing API key is not an error here: every submission reports it instead.
func (c *Config) Validate() error {
	if err := ValidateURL(c.OpenAI.BaseURL, "OpenAI base"); err != nil {
		return err
	}
	if err := ValidateTimeout(c.OpenAI.Timeout, "provider"); err != nil {
		return err
	}
	if err := ValidatePort(c.Server.Port, "HTTP"); err != nil {
		return err
	}
	if c.Server.WriteTimeout <= c.OpenAI.Timeout {
		return fmt.Errorf("server write timeout %s must exceed provider timeout %s", c.Server.WriteTimeout, c.OpenAI.Timeout)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if strings.TrimSpace(c.Relay.UploadsDir) == "" {
		return fmt.Errorf("uploads directory is required")
	}
	if c.Relay.DefaultLanguage == "" {
		return fmt.Errorf("default language is required")
	}
	return nil
}

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 30*time.Minute {
		return fmt.Errorf("%s timeout too large (max 30 minutes)", name)
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(url string, name string) error {
	if url == "" {
		return fmt.Errorf("%s URL is required", name)
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%s URL must start with http:// or https://", name)
	}

	return nil
}

// ValidatePort validates port number
func ValidatePort(port string, name string) error {
	if port == "" {
		return fmt.Errorf("%s port is required", name)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s port invalid", name)
	}

	return nil
}
