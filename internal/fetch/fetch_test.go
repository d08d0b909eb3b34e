package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() *Options {
	return &Options{
		Timeout:      2 * time.Second,
		MaxAttempts:  3,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://example.com", r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	client := NewClient(fastOptions(), nil, nil)
	result, err := client.Get(context.Background(), server.URL, map[string]string{"Referer": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.Text(), "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, 1, result.Attempts)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := NewClient(nil, nil, nil).Get(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindInvalidURL, fetchErr.Kind)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestGet_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	result, err := NewClient(fastOptions(), nil, nil).Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text())
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, result.Attempts)
}

func TestGet_GivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(fastOptions(), nil, nil).Get(context.Background(), server.URL, nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindHTTP5xx, fetchErr.Kind)
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorsRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(fastOptions(), nil, nil).Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, KindHTTP4xx, KindOf(err))
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_StrictPredicateSkipsClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	opts := fastOptions()
	opts.Retry = RetryServerErrors
	_, err := NewClient(opts, nil, nil).Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, KindHTTP4xx, KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_TimeoutCountsAsAttempt(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	opts := fastOptions()
	opts.Timeout = 50 * time.Millisecond
	_, err := NewClient(opts, nil, nil).Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := NewClient(fastOptions(), nil, nil).Get(context.Background(), addr, nil)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestGetJSON_DecodeError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var v map[string]any
	_, err := GetJSON(context.Background(), NewClient(fastOptions(), nil, nil), server.URL, nil, &v)
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
	assert.Equal(t, int32(1), calls.Load(), "decode failures are not retried")
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"a":1},{"a":2}]`))
	}))
	defer server.Close()

	var v []map[string]int
	_, err := GetJSON(context.Background(), NewClient(fastOptions(), nil, nil), server.URL, nil, &v)
	require.NoError(t, err)
	assert.Len(t, v, 2)
}

func TestRetryPredicates(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		always bool
		strict bool
	}{
		{"transport error", 0, assert.AnError, true, true},
		{"ok", 200, nil, false, false},
		{"not found", 404, nil, true, false},
		{"too many requests", 429, nil, true, false},
		{"server error", 500, nil, true, true},
		{"bad gateway", 502, nil, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.always, RetryAlways(tt.status, tt.err))
			assert.Equal(t, tt.strict, RetryServerErrors(tt.status, tt.err))
		})
	}
}

func TestStatusKind(t *testing.T) {
	assert.Equal(t, KindHTTP4xx, StatusKind(404))
	assert.Equal(t, KindHTTP5xx, StatusKind(503))
}
