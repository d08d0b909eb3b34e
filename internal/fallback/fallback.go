// Package fallback sequences the sources of one dataset: the first source
// that yields at least one record wins and later sources are never invoked.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/sources"
)

// ErrNoRecords is returned when every source of a chain yielded zero records.
var ErrNoRecords = errors.New("no source produced any records")

// Result is the outcome of the winning source.
type Result[T any] struct {
	Records []T
	Source  string
	Failed  int
	// Tried lists the sources invoked, winner last.
	Tried []string
}

// Chain tries its sources in order.
type Chain[T any] struct {
	sources []sources.Source[T]
	logger  *slog.Logger
}

// New builds a chain. The first source is the primary.
func New[T any](logger *slog.Logger, srcs ...sources.Source[T]) *Chain[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain[T]{sources: srcs, logger: logger}
}

// Sources returns the names of the configured sources in order.
func (c *Chain[T]) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Run escalates only on an empty result. A source that returns an error is
// treated as empty. A canceled ctx stops escalation.
func (c *Chain[T]) Run(ctx context.Context) (*Result[T], error) {
	var tried []string
	failed := 0

	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tried = append(tried, src.Name())

		batch, err := src.Crawl(ctx)
		switch {
		case err != nil:
			c.logger.Error("source failed", "source", src.Name(), "error", err)
		case batch == nil:
			c.logger.Warn("source yielded no records", "source", src.Name(), "failed_tasks", 0)
		case len(batch.Records) == 0:
			failed += batch.Failed
			c.logger.Warn("source yielded no records", "source", src.Name(), "failed_tasks", batch.Failed)
		default:
			c.logger.Info("source succeeded", "source", src.Name(),
				"records", len(batch.Records), "failed_tasks", batch.Failed)
			return &Result[T]{
				Records: batch.Records,
				Source:  src.Name(),
				Failed:  batch.Failed,
				Tried:   tried,
			}, nil
		}

		if i+1 < len(c.sources) {
			c.logger.Warn("switching to fallback source", "from", src.Name(), "to", c.sources[i+1].Name())
		}
	}

	return nil, fmt.Errorf("%w (tried: %s, failed tasks: %d)", ErrNoRecords, strings.Join(tried, ", "), failed)
}
