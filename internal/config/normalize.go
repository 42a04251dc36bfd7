package config

import (
	"fmt"
	"os"
	"strings"

	"nextup/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProfile()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProfile() {
	c.Profile.User = textutil.SanitizeToken(strings.TrimSpace(c.Profile.User))
	if c.Profile.User == "" || c.Profile.User == "unknown" {
		c.Profile.User = defaultUser
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultProvider
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupAPIKey(c.LLM.Provider)
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if p, ok := providers[c.LLM.Provider]; ok {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = p.baseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = p.model
		}
	}
	c.LLM.RepairModel = strings.TrimSpace(c.LLM.RepairModel)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	if c.LLM.BreakerCooldownSeconds <= 0 {
		c.LLM.BreakerCooldownSeconds = defaultLLMBreakerCooldownSecs
	}
}

// lookupAPIKey checks NEXTUP_API_KEY first, then the provider's own variable.
func lookupAPIKey(provider string) string {
	if value, ok := os.LookupEnv("NEXTUP_API_KEY"); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if p, ok := providers[provider]; ok {
		if value, ok := os.LookupEnv(p.envKey); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
