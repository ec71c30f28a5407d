package lokal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maauso/jobfeed/internal/feed"
	"github.com/maauso/jobfeed/internal/job"
)

// ErrInvalidPage is returned for page numbers below 1.
var ErrInvalidPage = errors.New("lokal: page must be >= 1")

// Compile-time check that HTTPClient implements feed.PageFetcher.
var _ feed.PageFetcher = (*HTTPClient)(nil)

// HTTPClient fetches job pages over HTTP.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	logger      *slog.Logger
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = &http.Client{Timeout: d}
	}
}

// WithBaseURL sets a custom base URL for the Lokal API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
// Zero disables retries.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(hc *HTTPClient) {
		hc.logger = l
	}
}

// NewClient creates a new Lokal HTTP client.
func NewClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseBackoff: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	return c
}

// FetchPage returns the raw records of one page.
// Transport failures yield feed.ErrNetworkUnavailable, non-2xx responses a
// *feed.ServerError and unexpected bodies feed.ErrMalformedResponse.
func (c *HTTPClient) FetchPage(ctx context.Context, page int) ([]job.Raw, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	u := c.baseURL + jobsPath + "?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()

	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	records, err := job.DecodeEnvelope(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", feed.ErrMalformedResponse, page, err)
	}

	c.logger.Debug("lokal page fetched",
		slog.Int("page", page),
		slog.Int("count", len(records)),
	)
	return records, nil
}

// getWithRetry performs a GET with exponential backoff retry.
func (c *HTTPClient) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: context cancelled: %w", feed.ErrNetworkUnavailable, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
			c.logger.Debug("retrying lokal request",
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()),
			)
		}

		body, err := c.get(ctx, u)
		if err == nil {
			return body, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("lokal: max retries exceeded: %w", lastErr)
}

// get performs a single GET request.
func (c *HTTPClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("lokal: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: %w", feed.ErrNetworkUnavailable, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: read response: %w", feed.ErrNetworkUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &feed.ServerError{
			Status:  resp.StatusCode,
			Message: errorMessage(respBody),
		}
		// 5xx and 429 are retryable
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &retryableError{err: serverErr}
		}
		return nil, serverErr
	}

	return respBody, nil
}

// errorMessage extracts the "message" field of an error body, if any.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return strings.TrimSpace(e.Message)
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
