package config

import (
	"errors"
	"fmt"
	"strings"

	"nextup/internal/services"
)

// Validate ensures the configuration is usable. The API key is not checked
// here because offline commands (history, favorites, settings) work without
// one; use RequireAPIKey before talking to the provider.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	if err := c.validateLLM(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if _, ok := providers[c.LLM.Provider]; !ok && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.provider %q is unknown; set llm.base_url or use one of %s", c.LLM.Provider, strings.Join(Providers(), ", "))
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must be >= 0")
	}
	if c.LLM.BreakerFailures < 0 {
		return errors.New("llm.breaker_failures must be >= 0")
	}
	if c.LLM.MaxRepairs < 0 {
		return errors.New("llm.max_repairs must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q must be console, json, or auto", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

// RequireAPIKey reports a configuration error when no API key is available.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%w: llm.api_key is required. Set NEXTUP_API_KEY, the provider's key variable, or edit %s (create with 'nextup config init')", services.ErrConfiguration, defaultPath)
}
