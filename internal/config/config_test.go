package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CRAWLER_OUT_DIR", "CRAWLER_TIMEOUT", "CRAWLER_DEADLINE", "GITHUB_TOKEN",
		"NUTRITION_XLS_URL", "LOG_LEVEL", "LOG_FILE", "METRICS_FILE", "DATABASE_URL",
		"CRAWLER_CONCURRENCY", "CRAWLER_MAX_ATTEMPTS", "CRAWLER_USE_BROWSER",
		"CRAWLER_BYPASS_CLOUDFLARE", "CRAWLER_STRICT_RETRY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.OutDir)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Deadline)
	assert.Equal(t, 200*time.Millisecond, cfg.PolitenessMin)
	assert.Equal(t, 600*time.Millisecond, cfg.PolitenessMax)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
}

func TestLoad_JSON5FileWithLocalOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	base := `{
		// shared settings
		out_dir: "out",
		concurrency: 5,
		timeout: "10s",
		log_level: "debug",
	}`
	local := `{
		concurrency: 2,
		github_token: "local-token",
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crawler.json5"), []byte(base), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crawler.local.json5"), []byte(local), 0644))

	cfg, err := Load(filepath.Join(dir, "crawler.json5"))
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "local-token", cfg.GitHubToken)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "crawler.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{concurrency: 5, deadline: "1m"}`), 0644))

	t.Setenv("CRAWLER_CONCURRENCY", "7")
	t.Setenv("CRAWLER_DEADLINE", "90s")
	t.Setenv("NUTRITION_XLS_URL", "https://mirror.example/cfct.xlsx")
	t.Setenv("CRAWLER_USE_BROWSER", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Deadline)
	assert.Equal(t, "https://mirror.example/cfct.xlsx", cfg.SpreadsheetURL)
	assert.True(t, cfg.UseBrowser)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "invalid json5", file: `{ concurrency: }`, wantErr: "failed to parse config file"},
		{name: "bad duration", file: `{timeout: "soon"}`, wantErr: "'timeout' is not a duration"},
		{name: "bad int env", file: `{}`, env: map[string]string{"CRAWLER_CONCURRENCY": "many"}, wantErr: "CRAWLER_CONCURRENCY must be an integer"},
		{name: "bad bool env", file: `{}`, env: map[string]string{"CRAWLER_USE_BROWSER": "sometimes"}, wantErr: "CRAWLER_USE_BROWSER must be a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "crawler.json5")
			require.NoError(t, os.WriteFile(path, []byte(tt.file), 0644))

			cfg, err := Load(path)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/nonexistent/path/crawler.json5")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "'concurrency' must be positive"},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: "'max_attempts' must be positive"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "'timeout' must be positive"},
		{name: "negative deadline", mutate: func(c *Config) { c.Deadline = -time.Second }, wantErr: "'deadline' must be non-negative"},
		{name: "negative delay", mutate: func(c *Config) { c.PolitenessMin = -time.Millisecond }, wantErr: "politeness delays"},
		{name: "inverted delays", mutate: func(c *Config) { c.PolitenessMax = 100 * time.Millisecond }, wantErr: "'politeness_max'"},
		{name: "no out dir", mutate: func(c *Config) { c.OutDir = "" }, wantErr: "'out_dir' must be set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_OutputPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("data", "nutrition_cn.csv"), cfg.OutputPath("nutrition_cn.csv"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLogLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
