// Package timesync fetches the wall-clock reference used to prefix log lines.
package timesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultURL is the public time service queried when none is configured.
const DefaultURL = "http://worldtimeapi.org/api/timezone/etc/utc"

// ErrNoDatetime is returned when the response has no datetime field.
var ErrNoDatetime = errors.New("timesync: response has no datetime")

// Fetcher returns the current datetime string.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Client queries an HTTP time service.
type Client struct {
	url     string
	http    *http.Client
	retries uint64
	initial time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(cl *Client) {
		if n >= 0 {
			cl.retries = uint64(n)
		}
	}
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) Option {
	return func(cl *Client) { cl.initial = d }
}

// NewClient creates a Client for url with a per-request timeout.
func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		retries: 3,
		initial: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Datetime string `json:"datetime"`
}

// Fetch GETs the service and returns its datetime field. Network errors and
// 5xx responses are retried with exponential backoff; 4xx responses and
// malformed bodies are not.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	var datetime string

	op := func() error {
		dt, err := c.fetchOnce(ctx)
		if err != nil {
			return err
		}
		datetime = dt
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxElapsedTime = 0
	b.Reset()

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)); err != nil {
		return "", fmt.Errorf("fetch time from %s: %w", c.url, err)
	}
	return datetime, nil
}

func (c *Client) fetchOnce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if r.Datetime == "" {
		return "", backoff.Permanent(ErrNoDatetime)
	}
	return r.Datetime, nil
}
