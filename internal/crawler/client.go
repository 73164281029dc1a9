package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sportscanner/app-crawlers/internal/config"
)

const (
	maxAttempts  = 2
	retryBackoff = 2 * time.Second
)

// StatusError is a non-2xx provider response. 4xx responses are never
// retried; 5xx responses get one more attempt.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
}

// Client is the single outbound HTTP client every task in a pipeline run
// shares. Connection limits and timeouts are enforced here; a token-bucket
// limiter (20 requests/s, burst 5 in NewClient) paces requests so providers
// are not hammered.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient builds the shared client from configuration, including the
// optional rotating upstream proxy.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.HTTPConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:     cfg.HTTPMaxConnections,
		MaxIdleConns:        cfg.HTTPMaxKeepaliveConnections,
		MaxIdleConnsPerHost: cfg.HTTPMaxKeepaliveConnections,
		IdleConnTimeout:     90 * time.Second,
	}

	if cfg.UseProxies {
		if cfg.RotatingProxyEndpoint == "" {
			return nil, fmt.Errorf("USE_PROXIES is set but ROTATING_PROXY_ENDPOINT is empty")
		}
		proxyURL, err := url.Parse(cfg.RotatingProxyEndpoint)
		if err != nil {
			return nil, fmt.Errorf("parse proxy endpoint: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPRequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(20), 5),
		logger:  logger,
	}, nil
}

// NewTestClient wraps an existing http.Client, for tests against httptest
// servers.
func NewTestClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     logger,
	}
}

// Do issues the request described by detail with the shared retry policy:
// at most two attempts with a fixed backoff, retrying only transport
// failures and 5xx responses.
func (c *Client) Do(ctx context.Context, detail RequestDetail) (*RawResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("Retrying request", "url", detail.URL, "attempt", attempt)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := c.doOnce(ctx, detail)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, detail RequestDetail) (*RawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	method := http.MethodGet
	var body io.Reader
	if len(detail.Payload) > 0 {
		method = http.MethodPost
		body = bytes.NewReader(detail.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, detail.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range detail.Headers {
		req.Header.Set(key, value)
	}
	if detail.Token != "" {
		req.Header.Set("Authorization", detail.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", detail.URL, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: detail.URL}
	}

	return &RawResponse{
		Body:       responseBody,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Request:    detail,
	}, nil
}

// retryable reports whether an error is worth a second attempt: transport
// failures and 5xx responses only.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
