// Package client is a Go client for the Dimensions Analytics API.  It
// authenticates with an API key, exchanges it for a JWT and submits DSL
// queries, retrying transient failures with exponential backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dimpat/pkg/errors"
)

const Version = "0.1.0"

// DefaultBaseURL is the public Dimensions endpoint.
const DefaultBaseURL = "https://app.dimensions.ai"

const (
	authPath = "/api/auth"
	dslPath  = "/api/dsl/v2"
)

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is a no-op implementation of Logger
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one Dimensions deployment.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	tokenMu sync.Mutex
	token   string

	patents     *PatentsClient
	patentsOnce sync.Once
}

// APIError represents an error response from the API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dimensions: HTTP %d: %s [request_id=%s]", e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// code classifies the API error for AppError wrapping.
func (e *APIError) code() errors.ErrorCode {
	switch {
	case e.IsUnauthorized():
		return errors.ErrCodeDataSourceAuthFailed
	case e.IsRateLimited():
		return errors.ErrCodeDataSourceRateLimited
	case e.IsServerError():
		return errors.ErrCodeDataSourceUnavailable
	default:
		return errors.ErrCodeBadRequest
	}
}

// NewClient creates a Dimensions client.  An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", errors.ErrInvalidConfig)
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", errors.ErrInvalidConfig, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", errors.ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		userAgent:    fmt.Sprintf("dimpat/%s", Version),
		logger:       &noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Patents returns the patents sub-client (lazy initialization, thread-safe)
func (c *Client) Patents() *PatentsClient {
	c.patentsOnce.Do(func() {
		c.patents = &PatentsClient{client: c}
	})
	return c.patents
}

// ─────────────────────────────────────────────────────────────────────────────
// Authentication
// ─────────────────────────────────────────────────────────────────────────────

// Login exchanges the API key for a session token and caches it.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"key": c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to marshal login body: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, authPath, "application/json", body, "", &resp); err != nil {
		return c.classify(err, "dimensions login failed")
	}
	if resp.Token == "" {
		return errors.New(errors.ErrCodeDataSourceAuthFailed, "dimensions login returned no token")
	}

	c.tokenMu.Lock()
	c.token = resp.Token
	c.tokenMu.Unlock()
	c.logger.Infof("Logged in to %s", c.baseURL)
	return nil
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	tok := c.token
	c.tokenMu.Unlock()
	if tok != "" {
		return tok, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.token, nil
}

func (c *Client) resetToken(stale string) {
	c.tokenMu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.tokenMu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// dslErrors is the error envelope the API may return alongside a 200 status.
type dslErrors struct {
	Errors json.RawMessage `json:"errors,omitempty"`
}

// Query submits a raw DSL query and decodes the body into result.  An
// expired session is renewed once.
func (c *Client) Query(ctx context.Context, dsl string, result interface{}) error {
	var raw json.RawMessage
	for attempt := 0; ; attempt++ {
		tok, err := c.currentToken(ctx)
		if err != nil {
			return err
		}
		err = c.do(ctx, dslPath, "text/plain; charset=utf-8", []byte(dsl), tok, &raw)
		if err == nil {
			break
		}
		var apiErr *APIError
		if attempt == 0 && asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.logger.Infof("Session expired, logging in again")
			c.resetToken(tok)
			continue
		}
		return c.classify(err, "dimensions query failed")
	}

	var envelope dslErrors
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode DSL response")
	}
	if len(envelope.Errors) > 0 && string(envelope.Errors) != "null" {
		return errors.New(errors.ErrCodeBadRequest, "dimensions rejected the query").
			WithDetail(string(envelope.Errors))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode DSL response")
	}
	return nil
}

func (c *Client) classify(err error, msg string) error {
	var apiErr *APIError
	if asAPIError(err, &apiErr) {
		return errors.Wrap(err, apiErr.code(), msg)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, msg)
}

func asAPIError(err error, target **APIError) bool {
	return stderrors.As(err, target)
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

// do POSTs body to path with retry.  token, when set, is sent as
// "Authorization: JWT <token>".  The raw response body is decoded into result.
func (c *Client) do(ctx context.Context, path, contentType string, body []byte, token string, result interface{}) error {
	fullURL := c.baseURL + path

	var lastErr error
	var serverWait time.Duration
	hasServerWait := false
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			if hasServerWait {
				backoff, hasServerWait = serverWait, false
			}
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if token != "" {
			req.Header.Set("Authorization", "JWT "+token)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}

		c.logger.Debugf("POST %s %d (%v)", path, resp.StatusCode, duration)

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if wait, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				c.logger.Infof("Rate limited, server asks to wait %v", wait)
				serverWait, hasServerWait = wait, true
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := newAPIError(resp.StatusCode, respBody, requestID)
			lastErr = apiErr
			if c.shouldRetry(resp) {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if raw, ok := result.(*json.RawMessage); ok {
				*raw = append((*raw)[:0], respBody...)
				return nil
			}
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to unmarshal response")
			}
		}
		return nil
	}

	return lastErr
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	if len(body) == 0 {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Message != "") {
		apiErr.Message = errResp.Error
		if apiErr.Message == "" {
			apiErr.Message = errResp.Message
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (c *Client) shouldRetry(resp *http.Response) bool {
	if resp == nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode >= 500 && resp.StatusCode < 600)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}

	// Add jitter (0-25% of backoff)
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h string) (time.Duration, bool) {
	if h == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

//Personal.AI order the ending
