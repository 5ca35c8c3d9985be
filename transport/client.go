// Package transport implements the HTTP delivery engine shared by the
// webhook, Slack, Teams, and Loki handlers: method and header handling,
// request timeouts, and bounded retry with a fixed delay.
package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultTimeoutSeconds is the request timeout applied when none is set.
	DefaultTimeoutSeconds = 10

	// DefaultRetryDelay is the pause between attempts when none is set.
	DefaultRetryDelay = 1 * time.Second
)

var validate = validator.New()

// Config controls a transport client. Validation bounds follow the handler
// contract: method restricted to the five verbs, timeout 1–300 seconds,
// retries 0–10.
type Config struct {
	// Method is the HTTP verb used for every request.
	Method string `validate:"required,oneof=GET POST PUT PATCH DELETE"`

	// TimeoutSeconds bounds each individual attempt.
	TimeoutSeconds int `validate:"min=1,max=300"`

	// Retries is the number of re-attempts after the first failure.
	Retries int `validate:"min=0,max=10"`

	// RetryDelay is the pause between attempts. No pause follows the final
	// attempt.
	RetryDelay time.Duration `validate:"min=0"`

	// Headers are added to every request. A Content-Type of
	// application/json is supplied when the caller sets none.
	Headers map[string]string
}

// normalize fills defaults before validation.
func (c *Config) normalize() {
	if c.Method == "" {
		c.Method = http.MethodPost
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	if _, ok := c.Headers["Content-Type"]; !ok {
		c.Headers["Content-Type"] = "application/json"
	}
}

// Client sends payloads over HTTP with retry. It is safe for concurrent
// use.
type Client struct {
	config     Config
	httpClient *http.Client
	sleep      func(time.Duration)
}

// New validates the configuration and creates a client.
func New(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := validate.Struct(&cfg); err != nil {
		return nil, NewConfigError("invalid transport configuration", err)
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		sleep: time.Sleep,
	}, nil
}

// Method returns the configured HTTP verb.
func (c *Client) Method() string {
	return c.config.Method
}

// Send delivers the payload to rawURL. Success is any response with a
// status in 200–399. Failed attempts are retried after the configured delay
// up to the retry budget; the final attempt is never followed by a sleep.
// An unparsable or schemeless URL fails immediately without an attempt.
func (c *Client) Send(ctx context.Context, rawURL string, payload []byte) bool {
	if !ValidURL(rawURL) {
		return false
	}

	for attempt := 0; ; attempt++ {
		if c.attempt(ctx, rawURL, payload) {
			return true
		}
		if attempt >= c.config.Retries {
			return false
		}
		c.sleep(c.config.RetryDelay)
		if ctx.Err() != nil {
			return false
		}
	}
}

// attempt performs one request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, rawURL string, payload []byte) bool {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, rawURL, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// ValidURL accepts absolute http/https URLs with a host.
func ValidURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// IsTimeout reports whether an error is a timeout, either from the request
// context or the socket.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
