// Package fetch wraps outbound judge-API requests with a shared connection
// pool, a fixed per-request timeout, and exponential-backoff retries.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"stalkbot/pkg/logx"
)

// ErrUnavailable is returned after all attempts are exhausted. It is distinct
// from a successful fetch of JSON null, which leaves the caller's target
// untouched and succeeds.
var ErrUnavailable = errors.New("fetch: data unavailable")

type Config struct {
	// Timeout bounds every individual request.
	Timeout time.Duration
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int
	// RetryBase is the delay before the first retry; it doubles after each
	// failed attempt.
	RetryBase time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	return c
}

// Client is safe for concurrent use. The underlying http.Client (and its
// connection pool) is created lazily on first use and shared for the
// process lifetime.
type Client struct {
	cfg Config
	log logx.Logger

	mu   sync.Mutex
	http *http.Client

	// sleep is the inter-attempt wait; a hook so tests can capture delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg.withDefaults(), log: log, sleep: sleepCtx}
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		c.http = &http.Client{Timeout: c.cfg.Timeout}
		c.log.Debug("http client initialized", logx.Duration("timeout", c.cfg.Timeout))
	}
	return c.http
}

// Close releases idle connections. Safe to call even if the pool was never used.
func (c *Client) Close() {
	c.mu.Lock()
	h := c.http
	c.mu.Unlock()
	if h != nil {
		h.CloseIdleConnections()
	}
}

// GetJSON performs a GET against rawURL with the given query parameters and
// decodes the response body into out.
//
// Any transport error, non-2xx status, or JSON decode error counts as a
// failed attempt; after MaxAttempts tries the last error is wrapped in
// ErrUnavailable. The inter-attempt delay starts at RetryBase and doubles.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	u := rawURL
	if len(query) > 0 {
		sep := "?"
		if parsed, err := url.Parse(rawURL); err == nil && parsed.RawQuery != "" {
			sep = "&"
		}
		u = rawURL + sep + query.Encode()
	}

	delay := c.cfg.RetryBase
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		lastErr = c.getJSONOnce(ctx, u, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < c.cfg.MaxAttempts {
			c.log.Warn("fetch failed; retrying",
				logx.String("url", rawURL),
				logx.Int("attempt", attempt),
				logx.Int("max", c.cfg.MaxAttempts),
				logx.Duration("delay", delay),
				logx.Err(lastErr),
			)
			if err := c.sleep(ctx, delay); err != nil {
				break
			}
			delay *= 2
		}
	}
	c.log.Error("fetch gave up", logx.String("url", rawURL), logx.Err(lastErr))
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) getJSONOnce(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
