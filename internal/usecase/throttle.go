package usecase

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/revenue-tracker/internal/repository"
)

// newSourceLimiter spaces a source's network calls by delay. The first call
// goes through immediately.
func newSourceLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// waitTurn takes the limiter slot for a request to url. When next has to
// download robots.txt for the host first, that download uses the slot and the
// request waits for another one.
func waitTurn(ctx context.Context, limiter *rate.Limiter, next any, url string) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	rp, ok := next.(repository.RobotsPrefetcher)
	if !ok {
		return nil
	}
	downloaded, err := rp.PrefetchRobots(ctx, url)
	if err != nil {
		return err
	}
	if downloaded {
		return limiter.Wait(ctx)
	}
	return nil
}

type throttledPages struct {
	next    repository.PageFetcher
	limiter *rate.Limiter
}

func (t throttledPages) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := waitTurn(ctx, t.limiter, t.next, url); err != nil {
		return nil, err
	}
	return t.next.Fetch(ctx, url)
}

type throttledFeeds struct {
	next    repository.FeedFetcher
	limiter *rate.Limiter
}

func (t throttledFeeds) FetchFeed(ctx context.Context, url string) ([]repository.FeedEntry, error) {
	if err := waitTurn(ctx, t.limiter, t.next, url); err != nil {
		return nil, err
	}
	return t.next.FetchFeed(ctx, url)
}

type throttledRenderer struct {
	next    repository.Renderer
	limiter *rate.Limiter
}

func (t throttledRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.next.Render(ctx, url)
}
