// Package api provides the platform REST client used as the primary producer
// of cached items, with retry, error classification and metrics.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/logging"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learncache_api_requests_total",
		Help: "Total platform API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "learncache_api_request_duration_seconds",
		Help:    "Platform API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learncache_api_errors_total",
		Help: "Total platform API errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of an error response ends up in APIError.Message.
const maxErrorBody = 512

// Config holds the client configuration.
type Config struct {
	// BaseURL is the platform host, e.g. "https://learn.example.org/api".
	BaseURL string

	// APIToken is sent as a bearer token when a request sets WithToken.
	APIToken string

	// UserAgent header value.
	UserAgent string

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry policy for server, rate limit and network errors.
	Retry RetryConfig
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "learncache/0.1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// Request describes one platform API call.
type Request struct {
	// Method defaults to GET.
	Method string

	// Path is appended to the base URL.
	Path string

	// Query parameters.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// WithToken adds the configured API token.
	WithToken bool

	// Endpoint labels metrics and logs (default: Path). Set it when Path carries ids.
	Endpoint string
}

func (r Request) endpoint() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return r.Path
}

// Response is a successful (2xx) platform API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is the platform API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logging.NewLogger("api-client"),
	}, nil
}

// Do performs a request with retries and returns the 2xx response.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := req.endpoint()

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	if req.Body != nil {
		encoded, err := sonic.ConfigStd.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing API request")

	var result *Response

	err := retryWithBackoff(ctx, c.logger, c.config.Retry, func() (ErrorClass, error) {
		httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return ErrorClassClient, fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(httpReq, req, body != nil)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			if ctx.Err() != nil {
				// Caller gave up; retrying cannot help.
				return ErrorClassClient, err
			}
			return ErrorClassNetwork, &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read response body", Err: err}
		}

		apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 300 {
			errClass := classifyStatus(resp.StatusCode)
			apiErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("API request error")

			return errClass, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    errorMessage(resp.Status, data),
			}
		}

		result = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       data,
		}
		return "", nil
	})
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("API request failed")
		return nil, err
	}

	return result, nil
}

func (c *Client) setHeaders(httpReq *http.Request, req Request, hasBody bool) {
	httpReq.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if hasBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.WithToken && c.config.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}
}

// classifyStatus categorizes a non-2xx status for retry and metrics.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

func errorMessage(status string, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return status
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return status + ": " + msg
}

// Fetch performs req and decodes the "result" field of the platform's
// response envelope into T.
func Fetch[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var envelope struct {
		Result T `json:"result"`
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return envelope.Result, err
	}

	if err := sonic.ConfigStd.Unmarshal(resp.Body, &envelope); err != nil {
		return envelope.Result, fmt.Errorf("decode %s response: %w", req.endpoint(), err)
	}
	return envelope.Result, nil
}
