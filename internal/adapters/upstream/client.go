// Package upstream is the shared HTTP JSON client used by every adapter
// that talks to a third-party API.
package upstream

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

	"github.com/bnema/finagents/internal/domain"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 32 << 20

var ErrUnauthorized = errors.New("upstream rejected credentials")

type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrDataNotAvailable
	default:
		return nil
	}
}

func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) maxDelay() time.Duration {
	if p.MaxDelay <= 0 {
		return 8 * time.Second
	}
	return p.MaxDelay
}

// Delay returns the wait before the given retry (1 for the first retry).
func (p RetryPolicy) Delay(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxDelay := p.maxDelay()

	delay := base
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

type Client struct {
	HTTPClient     *http.Client
	UserAgent      string
	Limiter        *rate.Limiter
	Retry          RetryPolicy
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    any
	Query   url.Values
	NoRetry bool
}

func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: endpoint}, out)
}

// Do sends the request, retrying rate-limited, server-side and network
// failures with exponential backoff up to the policy's attempt count.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	attempts := c.Retry.attempts()
	if req.NoRetry {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return fmt.Errorf("wait for rate limiter: %w", err)
			}
		}

		err := c.once(ctx, req, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		retryable, wait := c.classify(err, attempt)
		if !retryable || attempt == attempts {
			break
		}

		c.logger().Debug("retrying upstream request",
			slog.String("url", req.URL),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-timer.C:
		}
	}

	if made > 1 {
		return fmt.Errorf("giving up after %d attempts: %w", made, lastErr)
	}
	return lastErr
}

func (c *Client) classify(err error, attempt int) (bool, time.Duration) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}

	wait := c.Retry.Delay(attempt)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if !statusErr.Retryable() {
			return false, 0
		}
		if statusErr.RetryAfter > 0 {
			wait = min(statusErr.RetryAfter, c.Retry.maxDelay())
		}
		return true, wait
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false, 0
	}

	return true, wait
}

type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (c *Client) once(ctx context.Context, req Request, payload []byte, out any) error {
	endpoint, err := buildURL(req.URL, req.Query)
	if err != nil {
		return err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(snippet)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &DecodeError{URL: endpoint, Err: err}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func buildURL(raw string, query url.Values) (string, error) {
	if raw == "" {
		return "", errors.New("request url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("request url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("request url host is required")
	}

	if len(query) > 0 {
		merged := parsed.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		parsed.RawQuery = merged.Encode()
	}
	return parsed.String(), nil
}

// JoinURL appends path to base, keeping any path prefix base already has.
func JoinURL(base string, path string) (string, error) {
	if base == "" {
		return "", errors.New("api base url is required")
	}

	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	parsed, err := url.Parse(joined)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	return parsed.String(), nil
}
