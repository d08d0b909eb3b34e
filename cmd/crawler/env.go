package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/config"
	"github.com/singerliu226/AI-resipe/internal/db"
	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/metrics"
	"github.com/singerliu226/AI-resipe/internal/observability"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
)

const defaultConfigFile = "crawler.json5"

// env is what every subcommand shares: resolved config, logger, metrics and
// the optional run store.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	store    *db.DB
	printer  *observability.Printer
	closeLog func() error
}

// loadConfig resolves the config file, environment and persistent flags.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = config.ParseLogLevel(logLevel)
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if deadline != "" {
		d, err := time.ParseDuration(deadline)
		if err != nil {
			return nil, fmt.Errorf("invalid --deadline %q: %w", deadline, err)
		}
		cfg.Deadline = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup builds the env for cmd. With DATABASE_URL set it connects the run
// store; a connection failure is logged and crawling proceeds without it.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)

	e := &env{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewRecorder(),
		printer:  observability.NewPrinter(cmd.OutOrStdout()),
		closeLog: closeLog,
	}

	if cfg.DatabaseURL != "" {
		store, err := connectStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			logger.Warn("run store unavailable, continuing without it", "error", err)
		} else {
			e.store = store
		}
	}
	return e, nil
}

func connectStore(ctx context.Context, url string) (*db.DB, error) {
	store, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
	_ = e.closeLog()
}

// fetchOptions maps config onto fetch options. strict narrows retries to
// network failures and 5xx responses.
func (e *env) fetchOptions(strict bool) *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = e.cfg.Timeout
	opts.MaxAttempts = e.cfg.MaxAttempts
	opts.BypassCloudflare = e.cfg.BypassCloudflare
	if strict {
		opts.Retry = fetch.RetryServerErrors
	}
	return opts
}

// client returns the HTTP client used by API and file sources.
func (e *env) client() *fetch.Client {
	return fetch.NewClient(e.fetchOptions(e.cfg.StrictRetry), e.logger, e.metrics)
}

// pageGetter returns the getter for HTML scraping: a headless browser when
// configured, otherwise the HTTP client with strict retries.
func (e *env) pageGetter() fetch.Getter {
	if e.cfg.UseBrowser {
		return fetch.NewBrowserGetter(e.fetchOptions(true), e.logger)
	}
	return fetch.NewClient(e.fetchOptions(true), e.logger, e.metrics)
}

// runJob executes job, prints its summary and exports metrics. The metrics
// file is written even when the run failed.
func (e *env) runJob(ctx context.Context, job pipeline.Job) error {
	opts := pipeline.RunOptions{
		Logger:   e.logger,
		Deadline: e.cfg.Deadline,
		Metrics:  e.metrics,
	}
	if e.store != nil {
		opts.Store = e.store
	}

	summary, runErr := pipeline.Run(ctx, job, opts)
	if runErr == nil {
		e.printer.PrintSummary(summary)
	}

	if e.cfg.MetricsFile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
			e.logger.Warn("failed to write metrics file", "file", e.cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

// errNoStore is returned by commands that need the database.
var errNoStore = errors.New("this command needs a reachable database; set DATABASE_URL")
