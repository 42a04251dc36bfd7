package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextup/internal/config"
	"nextup/internal/services"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NEXTUP_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "DEEPSEEK_API_KEY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearKeyEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists, "expected config file to be absent in temp HOME")

	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "nextup"), cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "nextup", "logs"), cfg.Paths.LogDir)
	assert.Equal(t, "default", cfg.Profile.User)
	assert.Equal(t, config.ProviderOpenRouter, cfg.LLM.Provider)
	wantURL, _ := config.ProviderBaseURL(config.ProviderOpenRouter)
	assert.Equal(t, wantURL, cfg.LLM.BaseURL)
	assert.NotEmpty(t, cfg.LLM.Model)
	assert.Equal(t, 1, cfg.LLM.RetryAttempts)
	assert.Equal(t, 1, cfg.LLM.MaxRepairs)
	assert.True(t, cfg.FeedbackLog.Enabled)
	assert.Equal(t, "auto", cfg.Logging.Format)

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.UserDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	err = cfg.RequireAPIKey()
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestLoadCustomPath(t *testing.T) {
	clearKeyEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nextup.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Profile struct {
			User string `toml:"user"`
		} `toml:"profile"`
		LLM struct {
			Provider string `toml:"provider"`
			APIKey   string `toml:"api_key"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Profile.User = "Alice Smith"
	custom.LLM.Provider = "DeepSeek"
	custom.LLM.APIKey = " secret "

	data, err := toml.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, filepath.Join(tempDir, "data"), cfg.Paths.DataDir)
	assert.Equal(t, "alice_smith", cfg.Profile.User)
	assert.Equal(t, filepath.Join(tempDir, "data", "alice_smith"), cfg.UserDir())
	assert.Equal(t, config.ProviderDeepSeek, cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	model, _ := config.ProviderModel(config.ProviderDeepSeek)
	assert.Equal(t, model, cfg.LLM.Model)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestAPIKeyEnvFallbackOrder(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")

	t.Setenv("OPENROUTER_API_KEY", "router-key")
	cfg, _, _, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "router-key", cfg.LLM.APIKey)

	t.Setenv("NEXTUP_API_KEY", "nextup-key")
	cfg, _, _, err = config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "nextup-key", cfg.LLM.APIKey)
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[paths]\ndata_dir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENROUTER_API_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("OPENROUTER_API_KEY") })

	cfg, _, _, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"unknown provider without url", func(c *config.Config) { c.LLM.Provider = "acme"; c.LLM.BaseURL = "" }},
		{"negative repairs", func(c *config.Config) { c.LLM.MaxRepairs = -1 }},
		{"negative pacing", func(c *config.Config) { c.LLM.RequestsPerMinute = -5 }},
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LLM.Model = "m"
			cfg.LLM.BaseURL = "https://example.com"
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrConfiguration)
		})
	}
}

func TestUnknownProviderWithBaseURLIsAccepted(t *testing.T) {
	clearKeyEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[llm]\nprovider = \"local\"\nbase_url = \"http://127.0.0.1:8080/v1/chat/completions\"\nmodel = \"llama\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, _, _, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.LLM.Provider)
	assert.Equal(t, "llama", cfg.LLM.Model)
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.ProviderOpenRouter, cfg.LLM.Provider)
	assert.Contains(t, config.SampleConfig(), "[feedback_log]")
}

func TestLLMForSwitchesProvider(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "deep-key")
	cfg := config.Default()
	cfg.LLM.APIKey = "router-key"
	cfg.LLM.BaseURL, _ = config.ProviderBaseURL(config.ProviderOpenRouter)
	cfg.LLM.Model = "custom/model"
	cfg.LLM.MaxRepairs = 2

	same, err := cfg.LLMFor("")
	require.NoError(t, err)
	assert.Equal(t, cfg.LLM, same)

	deep, err := cfg.LLMFor("DeepSeek")
	require.NoError(t, err)
	assert.Equal(t, config.ProviderDeepSeek, deep.Provider)
	assert.Equal(t, "deep-key", deep.APIKey)
	assert.Equal(t, "deepseek-chat", deep.Model)
	assert.Equal(t, 2, deep.MaxRepairs)

	_, err = cfg.LLMFor("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}
