// Package remote implements the Attio HTTP transport.
// It prefixes the base URL, injects the bearer token, classifies error
// responses and retries rate-limited idempotent requests.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/attio/adapters/clock"
	"github.com/artpar/attio/domain/apierr"
	"github.com/artpar/attio/domain/ratelimit"
	"github.com/artpar/attio/ports"
)

const (
	// DefaultBaseURL is the production Attio API.
	DefaultBaseURL = "https://api.attio.com"

	// DefaultMaxRetries bounds rate limit retries per request.
	DefaultMaxRetries = 5

	// MinRetryDelay is the shortest wait before a retry, even when the
	// server's retry-after instant has already passed.
	MinRetryDelay = 100 * time.Millisecond
)

// Client sends requests to the Attio API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	headers        map[string]string
	disableRetries bool
	maxRetries     int
	clock          ports.Clock
	metrics        ports.Metrics
	logger         zerolog.Logger
	pacer          *Pacer
}

// ClientConfig configures the remote client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Headers map[string]string

	// DisableRetries surfaces rate limit errors immediately.
	DisableRetries bool
	MaxRetries     int

	// RequestsPerSecond paces every attempt, retries included.
	// Zero sends as fast as callers ask.
	RequestsPerSecond int

	// Optional collaborators. Nil values get real or no-op defaults.
	HTTPClient *http.Client
	Clock      ports.Clock
	Metrics    ports.Metrics
	Logger     zerolog.Logger
}

// NewClient creates a new remote HTTP client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	var clk ports.Clock = clock.Real{}
	if cfg.Clock != nil {
		clk = cfg.Clock
	}
	var m ports.Metrics = nopMetrics{}
	if cfg.Metrics != nil {
		m = cfg.Metrics
	}

	var pacer *Pacer
	if pace := ratelimit.PerSecond(cfg.RequestsPerSecond); pace.Enabled() {
		pacer = NewPacer(pace, clk)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		headers:        cfg.Headers,
		disableRetries: cfg.DisableRetries,
		maxRetries:     maxRetries,
		clock:          clk,
		metrics:        m,
		logger:         cfg.Logger,
		pacer:          pacer,
	}
}

// Do sends req, retrying rate limited idempotent requests until the
// server accepts them or the retry budget runs out.
func (c *Client) Do(ctx context.Context, req ports.Request) (json.RawMessage, error) {
	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	for attempt := 0; ; attempt++ {
		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
		body, err := c.send(ctx, req, payload)

		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) || apiErr.Kind != apierr.KindRateLimited {
			return body, err
		}
		c.metrics.RateLimited()

		if c.disableRetries || !req.Idempotent || attempt >= c.maxRetries {
			return nil, err
		}

		delay := apiErr.RetryAfter.Sub(c.clock.Now())
		if delay < MinRetryDelay {
			delay = MinRetryDelay
		}
		c.logger.Warn().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("rate limited, retrying")

		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
		c.metrics.Retried()
	}
}

func (c *Client) send(ctx context.Context, r ports.Request, payload []byte) (json.RawMessage, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	url := c.baseURL + r.Path
	if len(r.Query) > 0 {
		url += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(r.Method, 0, c.clock.Now().Sub(start))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(r.Method, resp.StatusCode, c.clock.Now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Msg("attio request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if e, ok := apierr.Decode(resp.StatusCode, data, resp.Header.Get("Retry-After"), c.clock.Now()); ok {
			return nil, e
		}
		return nil, &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// UnexpectedStatusError is a non-2xx response whose body is not a
// recognised Attio error.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(string, int, time.Duration) {}
func (nopMetrics) RateLimited()                              {}
func (nopMetrics) Retried()                                  {}
