// Package fetch retrieves posting pages one URL at a time behind a shared
// per-host politeness gate.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobtrack/internal/logging"
)

const (
	DefaultDelay   = 2 * time.Second
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 5 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	Delay   time.Duration
	Timeout time.Duration
}

// Document is one fetched page.
type Document struct {
	URL        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// Error is the single failure shape for a fetch: network errors, timeouts and
// non-2xx responses all end up here.
type Error struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

type Client struct {
	hc      *http.Client
	limiter *HostLimiter
	log     *zap.Logger
	now     func() time.Time
}

func New(cfg Config, limiter *HostLimiter, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = NewHostLimiter(cfg.Delay)
	}
	return &Client{
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     logging.Component(log, "fetch"),
		now:     time.Now,
	}
}

// Fetch waits for the politeness gate, then GETs url. It never retries.
func (c *Client) Fetch(ctx context.Context, url string) (*Document, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &Error{URL: url, Cause: errors.New("empty url")}
	}

	if err := c.limiter.WaitURL(ctx, url); err != nil {
		return nil, &Error{URL: url, Cause: errors.Wrap(err, "rate limit wait")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Cause: errors.Wrap(err, "build request")}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := c.now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return nil, &Error{URL: url, Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		c.log.Debug("fetch non-2xx", zap.String("url", url), zap.Int("status", res.StatusCode))
		return nil, &Error{
			URL:        url,
			StatusCode: res.StatusCode,
			Cause:      errors.Newf("unexpected status %s", res.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: url, StatusCode: res.StatusCode, Cause: errors.Wrap(err, "read body")}
	}

	c.log.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", c.now().Sub(start)),
	)

	return &Document{
		URL:        url,
		StatusCode: res.StatusCode,
		Body:       body,
		FetchedAt:  c.now(),
	}, nil
}
