// Package httpfetch implements the page-fetch capability over net/http.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/repository"
)

const (
	DefaultTimeout  = 30 * time.Second
	maxBodyBytes    = 5 << 20
	acceptHTMLOrXML = "text/html,application/xhtml+xml,application/xml;q=0.9,application/rss+xml;q=0.9,*/*;q=0.8"
)

type Options struct {
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
	RobotsTTL     time.Duration
}

// Client implements repository.PageFetcher.
type Client struct {
	http   *http.Client
	agents *agentRotation
	robots *robotsChecker // nil when robots.txt is ignored
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &http.Client{Timeout: opts.Timeout}
	c := &Client{
		http:   hc,
		agents: newAgentRotation(opts.UserAgent),
		logger: logger,
	}
	if opts.RespectRobots {
		c.robots = newRobotsChecker(hc, c.agents.Primary(), opts.RobotsTTL)
	}
	return c
}

// PrefetchRobots loads robots.txt for rawURL's host unless it is cached and
// reports whether a download happened. It is a no-op when robots.txt is
// ignored.
func (c *Client) PrefetchRobots(ctx context.Context, rawURL string) (bool, error) {
	if c.robots == nil {
		return false, nil
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	_, downloaded, err := c.robots.lookup(ctx, target)
	return downloaded, err
}

// Fetch GETs rawURL and returns its body. Timeouts map to
// repository.ErrFetchTimeout, non-2xx responses to repository.ErrHTTPStatus
// and robots.txt refusals to repository.ErrDisallowed.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if c.robots != nil && !c.robots.Allowed(ctx, target) {
		return nil, fmt.Errorf("%s: %w", rawURL, repository.ErrDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.agents.Next())
	req.Header.Set("Accept", acceptHTMLOrXML)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: %w: %d", rawURL, repository.ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.classify(ctx, rawURL, err)
	}
	c.logger.Debug("fetched", zap.String("url", rawURL), zap.Int("bytes", len(body)))
	return body, nil
}

// classify separates caller cancellation from the client's own timeout.
func (c *Client) classify(ctx context.Context, rawURL string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", rawURL, ctxErr)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w", rawURL, repository.ErrFetchTimeout)
	}
	return fmt.Errorf("get %s: %w", rawURL, err)
}
