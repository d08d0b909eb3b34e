// Package pipeline runs one dataset job end to end: collect records through a
// fallback chain, write them to the sink, and report what happened.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/singerliu226/AI-resipe/internal/fallback"
	"github.com/singerliu226/AI-resipe/internal/metrics"
	"github.com/singerliu226/AI-resipe/internal/sink"
	"github.com/singerliu226/AI-resipe/internal/types"
)

// Run statuses recorded in the store and in metrics.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent represents a progress update during a job run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when job progress occurs
type ProgressCallback func(event ProgressEvent)

// Progress steps.
const (
	StepCollect = "collect"
	StepWrite   = "write"
	StepDone    = "done"
)

// Collected is the merged record set of one run, type-erased for the sink.
type Collected struct {
	Rows   []types.Row
	Source string
	Failed int
	Tried  []string
}

// Job is one independently runnable dataset.
type Job struct {
	Name       string
	OutputPath string
	Collect    func(ctx context.Context) (*Collected, error)
}

// FromChain builds a job that collects through chain.
func FromChain[T types.Row](name, outputPath string, chain *fallback.Chain[T]) Job {
	return Job{
		Name:       name,
		OutputPath: outputPath,
		Collect: func(ctx context.Context) (*Collected, error) {
			res, err := chain.Run(ctx)
			if err != nil {
				return nil, err
			}
			return &Collected{
				Rows:   sink.Rows(res.Records),
				Source: res.Source,
				Failed: res.Failed,
				Tried:  res.Tried,
			}, nil
		},
	}
}

// RunStore records run bookkeeping. Implemented by db.DB.
type RunStore interface {
	CreateRun(ctx context.Context, runID uuid.UUID, job, outputPath string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, records, failed int) error
}

// RunOptions holds configuration for running a job
type RunOptions struct {
	Logger *slog.Logger
	// Deadline bounds the whole run. Zero means no deadline.
	Deadline   time.Duration
	Store      RunStore
	Metrics    *metrics.Recorder
	OnProgress ProgressCallback
}

// Summary describes a finished run.
type Summary struct {
	RunID      uuid.UUID
	Job        string
	Source     string
	Tried      []string
	Records    int
	Failed     int
	OutputPath string
	Elapsed    time.Duration
}

// Run executes job. It returns an error only when the run as a whole failed:
// no source produced records, the deadline expired, or the sink failed.
// Partial task failures are reported in Summary.Failed.
func Run(ctx context.Context, job Job, opts RunOptions) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := uuid.New()
	logger = logger.With("job", job.Name, "run_id", runID.String())
	start := time.Now()

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	if opts.Store != nil {
		if err := opts.Store.CreateRun(ctx, runID, job.Name, job.OutputPath); err != nil {
			logger.Warn("failed to record run start, continuing without persistence", "error", err)
			opts.Store = nil
		}
	}

	logger.Info("job started", "output", job.OutputPath, "deadline", opts.Deadline)
	emitProgress(&opts, runID, StepCollect, "collecting records", nil)

	summary, err := collectAndWrite(ctx, job, &opts, runID, logger)
	elapsed := time.Since(start)

	status := StatusCompleted
	records, failed := 0, 0
	if err != nil {
		status = StatusFailed
	} else {
		summary.Elapsed = elapsed
		records, failed = summary.Records, summary.Failed
	}

	opts.Metrics.ObserveItems(job.Name, records, failed)
	opts.Metrics.ObserveRun(job.Name, status, records, elapsed)
	if opts.Store != nil {
		// the run context may already be expired
		if serr := opts.Store.CompleteRun(context.WithoutCancel(ctx), runID, status, records, failed); serr != nil {
			logger.Warn("failed to record run completion", "error", serr)
		}
	}

	if err != nil {
		logger.Error("job failed", "error", err, "elapsed", elapsed)
		return nil, err
	}

	logger.Info("job finished",
		"source", summary.Source,
		"records", summary.Records,
		"failed_tasks", summary.Failed,
		"output", summary.OutputPath,
		"elapsed", elapsed)
	emitProgress(&opts, runID, StepDone, fmt.Sprintf("wrote %d records", summary.Records), summary)
	return summary, nil
}

func collectAndWrite(ctx context.Context, job Job, opts *RunOptions, runID uuid.UUID, logger *slog.Logger) (*Summary, error) {
	collected, err := job.Collect(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: run deadline exceeded: %w", job.Name, err)
		}
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}
	// A collector must report ErrNoRecords itself; an empty set here is a bug upstream.
	if len(collected.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", job.Name, sink.ErrEmptyInput)
	}

	logger.Debug("writing output", "records", len(collected.Rows), "source", collected.Source)
	emitProgress(opts, runID, StepWrite, fmt.Sprintf("writing %d records", len(collected.Rows)), nil)
	if err := sink.WriteCSV(job.OutputPath, collected.Rows); err != nil {
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}

	return &Summary{
		RunID:      runID,
		Job:        job.Name,
		Source:     collected.Source,
		Tried:      collected.Tried,
		Records:    len(collected.Rows),
		Failed:     collected.Failed,
		OutputPath: job.OutputPath,
	}, nil
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID uuid.UUID, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID.String(),
			Content: content,
		})
	}
}
