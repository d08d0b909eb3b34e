package sources

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/singerliu226/AI-resipe/internal/fetch"
)

// syncBuffer lets handlers and assertions share a log buffer across goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// newTestClient never retries so failure paths stay fast.
func newTestClient() *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		Timeout:      2 * time.Second,
		MaxAttempts:  1,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 2 * time.Millisecond,
	}, nil, nil)
}

func ptr(f float64) *float64 { return &f }
