package chromedp_renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// pageHeaders match what the static fetcher sends.
var pageHeaders = network.Headers{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// ChromedpRenderer renders pages in headless Chrome. One browser process is
// shared; each render gets its own tab, and at most maxConcurrency tabs are
// open at once.
type ChromedpRenderer struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	slots         chan struct{}
	timeout       time.Duration
	logger        *zap.Logger
}

// NewChromedpRenderer starts the browser allocator. Call Close when done.
func NewChromedpRenderer(maxConcurrency int, pageLoadTimeout time.Duration, userAgent string, logger *zap.Logger) (*ChromedpRenderer, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))
	// Launch the browser now so configuration errors surface at startup.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &ChromedpRenderer{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		slots:         make(chan struct{}, maxConcurrency),
		timeout:       pageLoadTimeout,
		logger:        logger,
	}, nil
}

// Render navigates to url, waits for the body, and returns the live DOM.
func (c *ChromedpRenderer) Render(ctx context.Context, url string) (string, error) {
	select {
	case c.slots <- struct{}{}:
		defer func() { <-c.slots }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	// Abandon the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	start := time.Now()
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(pageHeaders),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		c.logger.Debug("render failed", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	c.logger.Debug("rendered page", zap.String("url", url), zap.Duration("elapsed", time.Since(start)))
	return html, nil
}

// Close shuts down the browser.
func (c *ChromedpRenderer) Close() {
	c.browserCancel()
	c.allocCancel()
}
