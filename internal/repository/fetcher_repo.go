package repository

import (
	"context"
	"time"
)

// PageFetcher retrieves raw markup for an address.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedEntry is one item of an RSS or Atom feed.
type FeedEntry struct {
	Title       string
	URL         string
	PublishedAt *time.Time
}

// FeedFetcher retrieves and parses a feed, preserving feed order.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, url string) ([]FeedEntry, error)
}

// RichContent is the output of an article-tuned extractor.
type RichContent struct {
	Title string
	Text  string
}

// RichExtractor is a best-effort article-body extractor. It works on markup
// already fetched from url so that an article costs one request. Failures are
// reported as errors and never partially filled results.
type RichExtractor interface {
	ExtractArticle(ctx context.Context, url string, html []byte) (*RichContent, error)
}

// Renderer returns the DOM of a page after running its JavaScript.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RobotsPrefetcher is implemented by fetchers that consult robots.txt.
// PrefetchRobots loads the rules for url's host unless they are cached and
// reports whether that took a download.
type RobotsPrefetcher interface {
	PrefetchRobots(ctx context.Context, url string) (bool, error)
}
