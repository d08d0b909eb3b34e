// Package fetch performs HTTP retrievals with per-attempt timeouts, bounded
// retries with exponential backoff, and classified failures.
package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/singerliu226/AI-resipe/internal/metrics"
)

// DefaultTimeout is the per-attempt request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultMaxAttempts is the total number of attempts, first try included.
const DefaultMaxAttempts = 3

// DefaultUserAgent is a desktop browser user agent; some sources reject bot-like agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// Result holds the body and metadata of a successful fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
	Attempts    int
}

// Text returns the body as a string.
func (r *Result) Text() string {
	return string(r.Body)
}

// Getter retrieves one URL. Implemented by Client and BrowserGetter.
type Getter interface {
	Get(ctx context.Context, urlStr string, headers map[string]string) (*Result, error)
}

// Options configures the fetch behavior.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
	MaxAttempts  int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Retry        RetryPredicate
	// BypassCloudflare wraps the transport with browser-like TLS and headers.
	BypassCloudflare bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxAttempts:  DefaultMaxAttempts,
		RetryWait:    200 * time.Millisecond,
		RetryMaxWait: 5 * time.Second,
		Retry:        RetryAlways,
	}
}

func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o == nil {
		return out
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	if o.UserAgent != "" {
		out.UserAgent = o.UserAgent
	}
	if o.MaxAttempts > 0 {
		out.MaxAttempts = o.MaxAttempts
	}
	if o.RetryWait > 0 {
		out.RetryWait = o.RetryWait
	}
	if o.RetryMaxWait > 0 {
		out.RetryMaxWait = o.RetryMaxWait
	}
	if o.Retry != nil {
		out.Retry = o.Retry
	}
	out.Headers = o.Headers
	out.BypassCloudflare = o.BypassCloudflare
	return out
}

// Client is a retrying HTTP getter backed by resty.
type Client struct {
	http    *resty.Client
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewClient builds a Client. logger and recorder may be nil.
func NewClient(opts *Options, logger *slog.Logger, recorder *metrics.Recorder) *Client {
	o := opts.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rc := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("User-Agent", o.UserAgent).
		SetRetryCount(o.MaxAttempts - 1).
		SetRetryWaitTime(o.RetryWait).
		SetRetryMaxWaitTime(o.RetryMaxWait).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return o.Retry(statusOf(res), err)
		}).
		AddRetryHook(func(res *resty.Response, err error) {
			if res == nil || res.Request == nil {
				return
			}
			logger.Debug("retrying request",
				"url", res.Request.URL,
				"attempt", res.Request.Attempt,
				"status", res.StatusCode(),
				"error", err)
		})
	if len(o.Headers) > 0 {
		rc.SetHeaders(o.Headers)
	}
	if o.BypassCloudflare {
		rc.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(rc.GetClient().Transport)
	}

	return &Client{http: rc, opts: o, logger: logger, metrics: recorder}
}

// Get retrieves urlStr. Each attempt is bounded by Options.Timeout; failed
// attempts are retried per Options.Retry up to Options.MaxAttempts in total.
// The returned error is always a *Error.
func (c *Client) Get(ctx context.Context, urlStr string, headers map[string]string) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	res, err := req.Get(urlStr)
	attempts := max(req.Attempt, 1)

	if err != nil {
		kind := transportKind(err)
		c.metrics.ObserveFetch(string(kind), attempts)
		return nil, &Error{
			URL:      urlStr,
			Kind:     kind,
			Attempts: attempts,
			Message:  "HTTP request failed",
			Cause:    err,
		}
	}

	status := res.StatusCode()
	if !isSuccess(status) {
		kind := StatusKind(status)
		c.metrics.ObserveFetch(string(kind), attempts)
		return nil, &Error{
			URL:        urlStr,
			Kind:       kind,
			StatusCode: status,
			Attempts:   attempts,
			Message:    res.Status(),
		}
	}

	c.metrics.ObserveFetch("ok", attempts)
	return &Result{
		URL:         urlStr,
		Body:        res.Body(),
		ContentType: res.Header().Get("Content-Type"),
		StatusCode:  status,
		Attempts:    attempts,
	}, nil
}

// GetJSON fetches urlStr through g and decodes the body into v.
// A body that does not decode is a KindDecode error and is not retried.
func GetJSON(ctx context.Context, g Getter, urlStr string, headers map[string]string, v any) (*Result, error) {
	res, err := g.Get(ctx, urlStr, headers)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return res, &Error{
			URL:        urlStr,
			Kind:       KindDecode,
			StatusCode: res.StatusCode,
			Attempts:   res.Attempts,
			Message:    "failed to decode JSON body",
			Cause:      err,
		}
	}
	return res, nil
}

func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return &Error{
			URL:     urlStr,
			Kind:    KindInvalidURL,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	return nil
}

func statusOf(res *resty.Response) int {
	if res == nil || res.RawResponse == nil {
		return 0
	}
	return res.StatusCode()
}
