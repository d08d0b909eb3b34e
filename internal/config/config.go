// Package config provides configuration loading and validation for the crawler.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Config is the resolved crawler configuration.
type Config struct {
	OutDir      string
	Concurrency int

	// Timeout bounds one HTTP attempt.
	Timeout     time.Duration
	MaxAttempts int

	// Deadline bounds a whole job run. Zero means none.
	Deadline time.Duration

	PolitenessMin time.Duration
	PolitenessMax time.Duration

	GitHubToken    string
	SpreadsheetURL string

	// StrictRetry never retries 4xx responses.
	StrictRetry      bool
	UseBrowser       bool
	BypassCloudflare bool

	LogLevel    slog.Level
	LogFile     string
	MetricsFile string
	DatabaseURL string
}

// fileConfig is the on-disk form. Durations are Go duration strings ("20s").
type fileConfig struct {
	OutDir           string `json:"out_dir,omitempty"`
	Concurrency      int    `json:"concurrency,omitempty"`
	Timeout          string `json:"timeout,omitempty"`
	MaxAttempts      int    `json:"max_attempts,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	PolitenessMin    string `json:"politeness_min,omitempty"`
	PolitenessMax    string `json:"politeness_max,omitempty"`
	GitHubToken      string `json:"github_token,omitempty"`
	SpreadsheetURL   string `json:"spreadsheet_url,omitempty"`
	StrictRetry      bool   `json:"strict_retry,omitempty"`
	UseBrowser       bool   `json:"use_browser,omitempty"`
	BypassCloudflare bool   `json:"bypass_cloudflare,omitempty"`
	LogLevel         string `json:"log_level,omitempty"`
	LogFile          string `json:"log_file,omitempty"`
	MetricsFile      string `json:"metrics_file,omitempty"`
	DatabaseURL      string `json:"database_url,omitempty"`
}

func defaults() fileConfig {
	return fileConfig{
		OutDir:        "data",
		Concurrency:   3,
		Timeout:       "20s",
		MaxAttempts:   3,
		Deadline:      "0s",
		PolitenessMin: "200ms",
		PolitenessMax: "600ms",
		LogLevel:      "INFO",
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := defaults().resolve()
	if err != nil {
		panic(err) // defaults are constants
	}
	return cfg
}

// Load resolves configuration from defaults, then the JSON5 file at path and
// its "<name>.local.<ext>" sibling, then environment variables. An empty path
// skips the files.
func Load(path string) (*Config, error) {
	fc := defaults()

	if path != "" {
		fromFile, err := readFiles(path)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(&fc, fromFile, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	if err := fc.applyEnv(); err != nil {
		return nil, err
	}
	return fc.resolve()
}

// readFiles reads path and merges its local override on top.
func readFiles(path string) (fileConfig, error) {
	var out fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	localPath := localName(path)
	localData, err := os.ReadFile(localPath)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("failed to read config file %s: %w", localPath, err)
	}

	var override fileConfig
	if err := json5.Unmarshal(localData, &override); err != nil {
		return out, fmt.Errorf("failed to parse config file %s: %w", localPath, err)
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return out, fmt.Errorf("failed to merge %s: %w", localPath, err)
	}
	return out, nil
}

// localName maps "dir/crawler.json5" to "dir/crawler.local.json5".
func localName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func (fc *fileConfig) applyEnv() error {
	setString(&fc.OutDir, "CRAWLER_OUT_DIR")
	setString(&fc.Timeout, "CRAWLER_TIMEOUT")
	setString(&fc.Deadline, "CRAWLER_DEADLINE")
	setString(&fc.GitHubToken, "GITHUB_TOKEN")
	setString(&fc.SpreadsheetURL, "NUTRITION_XLS_URL")
	setString(&fc.LogLevel, "LOG_LEVEL")
	setString(&fc.LogFile, "LOG_FILE")
	setString(&fc.MetricsFile, "METRICS_FILE")
	setString(&fc.DatabaseURL, "DATABASE_URL")

	if err := setInt(&fc.Concurrency, "CRAWLER_CONCURRENCY"); err != nil {
		return err
	}
	if err := setInt(&fc.MaxAttempts, "CRAWLER_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setBool(&fc.UseBrowser, "CRAWLER_USE_BROWSER"); err != nil {
		return err
	}
	if err := setBool(&fc.BypassCloudflare, "CRAWLER_BYPASS_CLOUDFLARE"); err != nil {
		return err
	}
	return setBool(&fc.StrictRetry, "CRAWLER_STRICT_RETRY")
}

func (fc fileConfig) resolve() (*Config, error) {
	cfg := &Config{
		OutDir:           fc.OutDir,
		Concurrency:      fc.Concurrency,
		MaxAttempts:      fc.MaxAttempts,
		GitHubToken:      fc.GitHubToken,
		SpreadsheetURL:   fc.SpreadsheetURL,
		StrictRetry:      fc.StrictRetry,
		UseBrowser:       fc.UseBrowser,
		BypassCloudflare: fc.BypassCloudflare,
		LogLevel:         ParseLogLevel(fc.LogLevel),
		LogFile:          fc.LogFile,
		MetricsFile:      fc.MetricsFile,
		DatabaseURL:      fc.DatabaseURL,
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", fc.Timeout, &cfg.Timeout},
		{"deadline", fc.Deadline, &cfg.Deadline},
		{"politeness_min", fc.PolitenessMin, &cfg.PolitenessMin},
		{"politeness_max", fc.PolitenessMax, &cfg.PolitenessMax},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("config error: '%s' is not a duration: %w", d.name, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("config error: 'concurrency' must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config error: 'max_attempts' must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config error: 'timeout' must be positive")
	}
	if c.Deadline < 0 {
		return fmt.Errorf("config error: 'deadline' must be non-negative")
	}
	if c.PolitenessMin < 0 || c.PolitenessMax < 0 {
		return fmt.Errorf("config error: politeness delays must be non-negative")
	}
	if c.PolitenessMax < c.PolitenessMin {
		return fmt.Errorf("config error: 'politeness_max' must not be below 'politeness_min'")
	}
	if c.OutDir == "" {
		return fmt.Errorf("config error: 'out_dir' must be set")
	}
	return nil
}

// OutputPath returns the path of a dataset file inside OutDir.
func (c *Config) OutputPath(file string) string {
	return filepath.Join(c.OutDir, file)
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("config error: %s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("config error: %s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}
