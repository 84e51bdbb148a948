// Package feed implements the feed-fetch capability with gofeed.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/user/revenue-tracker/internal/repository"
)

// Fetcher downloads feeds through a PageFetcher and parses RSS, Atom or
// JSON Feed documents.
type Fetcher struct {
	pages repository.PageFetcher
}

func NewFetcher(pages repository.PageFetcher) *Fetcher {
	return &Fetcher{pages: pages}
}

// FetchFeed returns entries in feed order. Entries without a usable link are
// skipped.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) ([]repository.FeedEntry, error) {
	body, err := f.pages.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, body)
}

// PrefetchRobots forwards to the page fetcher when it consults robots.txt.
func (f *Fetcher) PrefetchRobots(ctx context.Context, url string) (bool, error) {
	if rp, ok := f.pages.(repository.RobotsPrefetcher); ok {
		return rp.PrefetchRobots(ctx, url)
	}
	return false, nil
}

// Parse parses a feed document.
func Parse(ctx context.Context, body []byte) ([]repository.FeedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]repository.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := extractLink(item)
		if link == "" {
			continue
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published != nil {
			t := published.UTC()
			published = &t
		}
		entries = append(entries, repository.FeedEntry{
			Title:       strings.TrimSpace(item.Title),
			URL:         link,
			PublishedAt: published,
		})
	}
	return entries, nil
}

// extractLink prefers the item link and falls back to a URL-shaped GUID.
func extractLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, "http") {
		return guid
	}
	return ""
}
