package config

import (
	"fmt"
	"strings"
	"time"

	"nextup/internal/services"
)

const (
	defaultConfigPath             = "~/.config/nextup/config.toml"
	defaultDataDir                = "~/.local/share/nextup"
	defaultLogDir                 = "~/.local/share/nextup/logs"
	defaultUser                   = "default"
	defaultProvider               = ProviderOpenRouter
	defaultLLMReferer             = "https://github.com/nextup/nextup"
	defaultLLMTitle               = "nextup"
	defaultLLMTimeoutSeconds      = 60
	defaultLLMRetryAttempts       = 1
	defaultLLMBreakerFailures     = 5
	defaultLLMBreakerCooldownSecs = 30
	defaultLLMMaxRepairs          = 1
	defaultLogFormat              = "auto"
	defaultLogLevel               = "info"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderDeepSeek   = "deepseek"
)

type providerDefaults struct {
	baseURL string
	model   string
	envKey  string
}

var providers = map[string]providerDefaults{
	ProviderOpenRouter: {
		baseURL: "https://openrouter.ai/api/v1/chat/completions",
		model:   "google/gemini-3-flash-preview",
		envKey:  "OPENROUTER_API_KEY",
	},
	ProviderOpenAI: {
		baseURL: "https://api.openai.com/v1/chat/completions",
		model:   "gpt-4o-mini",
		envKey:  "OPENAI_API_KEY",
	},
	ProviderDeepSeek: {
		baseURL: "https://api.deepseek.com/chat/completions",
		model:   "deepseek-chat",
		envKey:  "DEEPSEEK_API_KEY",
	},
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderOpenRouter, ProviderOpenAI, ProviderDeepSeek}
}

// ProviderBaseURL returns the chat-completion endpoint for a known provider.
func ProviderBaseURL(provider string) (string, bool) {
	p, ok := providers[provider]
	return p.baseURL, ok
}

// ProviderModel returns the default model for a known provider.
func ProviderModel(provider string) (string, bool) {
	p, ok := providers[provider]
	return p.model, ok
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Profile: Profile{
			User: defaultUser,
		},
		LLM: LLM{
			Provider:               defaultProvider,
			Referer:                defaultLLMReferer,
			Title:                  defaultLLMTitle,
			TimeoutSeconds:         defaultLLMTimeoutSeconds,
			RetryAttempts:          defaultLLMRetryAttempts,
			BreakerFailures:        defaultLLMBreakerFailures,
			BreakerCooldownSeconds: defaultLLMBreakerCooldownSecs,
			MaxRepairs:             defaultLLMMaxRepairs,
		},
		FeedbackLog: FeedbackLog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// Timeout returns the per-request LLM timeout.
func (l LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// BreakerCooldown returns how long an open circuit stays open.
func (l LLM) BreakerCooldown() time.Duration {
	return time.Duration(l.BreakerCooldownSeconds) * time.Second
}

// LLMFor returns the LLM settings for provider. The configured provider gets
// the section as loaded; another known provider gets its own endpoint, model
// and key variable with the remaining knobs unchanged.
func (c *Config) LLMFor(provider string) (LLM, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || provider == c.LLM.Provider {
		return c.LLM, nil
	}
	p, ok := providers[provider]
	if !ok {
		return LLM{}, fmt.Errorf("%w: provider %q is unknown; use one of %s", services.ErrConfiguration, provider, strings.Join(Providers(), ", "))
	}
	out := c.LLM
	out.Provider = provider
	out.BaseURL = p.baseURL
	out.Model = p.model
	out.APIKey = lookupAPIKey(provider)
	return out, nil
}
