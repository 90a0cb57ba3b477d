package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/detect"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/logfields"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/retry"
)

const (
	acceptHeader        = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultMaxBodyBytes = 10 << 20
)

// ErrBodyTooLarge is returned when a page exceeds the body limit. It is not retried.
var ErrBodyTooLarge = errors.New("fetch: response body exceeds limit")

// HTTPFetcher fetches pages with net/http.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	policy         retry.Policy
	recorder       metrics.Recorder
	logger         *slog.Logger
	maxBodyBytes   int64

	target   string
	waitPath []string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient replaces the default client. The client's timeout applies per attempt.
func WithHTTPClient(c *http.Client) Option { return func(f *HTTPFetcher) { f.client = c } }

// WithRecorder reports retries to r.
func WithRecorder(r metrics.Recorder) Option { return func(f *HTTPFetcher) { f.recorder = r } }

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option { return func(f *HTTPFetcher) { f.logger = l } }

// WithPolicy overrides the retry policy derived from the fetch config.
func WithPolicy(p retry.Policy) Option { return func(f *HTTPFetcher) { f.policy = p } }

// WithMaxBodyBytes sets the largest accepted response body.
func WithMaxBodyBytes(n int64) Option { return func(f *HTTPFetcher) { f.maxBodyBytes = n } }

// NewHTTPFetcher builds a fetcher from the fetch section of the configuration.
func NewHTTPFetcher(cfg config.FetchConfig, opts ...Option) *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	f := &HTTPFetcher{
		client:         &http.Client{Timeout: cfg.Timeout, Transport: transport},
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		policy:         retry.FromConfig(cfg),
		recorder:       metrics.NoopRecorder{},
		logger:         slog.Default(),
		maxBodyBytes:   defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForTarget returns a copy that waits for t's element path and labels retries with t's key.
func (f *HTTPFetcher) ForTarget(t config.Target) Fetcher {
	c := *f
	c.target = t.Key
	c.waitPath = t.WaitPath()
	return &c
}

// Fetch GETs url and retries transport errors, non-2xx responses and markup that
// lacks the wait path. The final failure is a classified network error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	attempts := f.policy.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			f.recorder.IncFetchRetry(f.target)
			f.logger.Warn("Retrying fetch",
				logfields.Target(f.target),
				logfields.URL(url),
				logfields.Attempt(attempt+1),
				slog.Duration("delay", f.policy.Delay(attempt)),
				logfields.Error(lastErr))
			if err := f.policy.Wait(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}

		start := time.Now()
		markup, err := f.fetchOnce(ctx, url)
		if err == nil && !detect.HasElementPath(markup, f.waitPath...) {
			err = fmt.Errorf("page did not contain %v", f.waitPath)
		}
		if err == nil {
			f.logger.Debug("Fetched page", logfields.Target(f.target), logfields.URL(url), logfields.Since(start))
			return markup, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, ErrBodyTooLarge) {
			break
		}
	}

	return "", ferrors.NetworkError("fetch failed").
		WithCause(lastErr).
		WithContext("url", url).
		WithContext("attempts", attempts).
		Build()
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	if f.acceptLanguage != "" {
		req.Header.Set("Accept-Language", f.acceptLanguage)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, URL: url}
	}
	// one byte past the limit tells a page of exactly the limit from a truncated one
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > f.maxBodyBytes {
		f.logger.Warn("Page exceeds body limit", logfields.Target(f.target), logfields.URL(url), slog.Int64("limit_bytes", f.maxBodyBytes))
		return "", fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodyBytes)
	}
	return decodeBody(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
