// Package sources turns remote datasets into unified records. Each adapter
// owns one remote representation and reports the records it produced plus
// the number of tasks that failed.
package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/singerliu226/AI-resipe/internal/types"
)

// Source is one remote dataset.
type Source[T any] interface {
	Name() string
	Crawl(ctx context.Context) (*types.Batch[T], error)
}

// SourceError is an adapter-level failure: the source as a whole could not
// be traversed (listing unreachable, payload of the wrong shape).
type SourceError struct {
	Source  string
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

var validate = validator.New()

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
