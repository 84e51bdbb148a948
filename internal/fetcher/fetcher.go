// Package fetcher discovers candidate article URLs for a source: feed first,
// then a crawl of the source's listing pages when the feed is thin.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/pkg/metrics"
	"github.com/user/revenue-tracker/pkg/utils"
)

// Options tunes candidate discovery. Zero values take the defaults below.
type Options struct {
	FeedMaxEntries     int
	FeedMaxAge         time.Duration
	FeedMinCandidates  int
	LinksPerSearchPath int
	Now                func() time.Time
}

const (
	defaultFeedMaxEntries     = 20
	defaultFeedMaxAge         = 7 * 24 * time.Hour
	defaultFeedMinCandidates  = 10
	defaultLinksPerSearchPath = 10
)

func (o Options) withDefaults() Options {
	if o.FeedMaxEntries <= 0 {
		o.FeedMaxEntries = defaultFeedMaxEntries
	}
	if o.FeedMaxAge <= 0 {
		o.FeedMaxAge = defaultFeedMaxAge
	}
	if o.FeedMinCandidates <= 0 {
		o.FeedMinCandidates = defaultFeedMinCandidates
	}
	if o.LinksPerSearchPath <= 0 {
		o.LinksPerSearchPath = defaultLinksPerSearchPath
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Fetcher resolves the candidate article URLs of one source. Calls for
// different sources may run concurrently; a single call is sequential.
type Fetcher struct {
	pages   repository.PageFetcher
	feeds   repository.FeedFetcher
	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(pages repository.PageFetcher, feeds repository.FeedFetcher, opts Options, m *metrics.Metrics, logger *zap.Logger) *Fetcher {
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{pages: pages, feeds: feeds, opts: opts.withDefaults(), metrics: m, logger: logger}
}

// Fetch returns the source's candidates, unique by URL, feed entries first.
// An error is returned only when nothing at all could be fetched.
func (f *Fetcher) Fetch(ctx context.Context, src entity.SourceDescriptor) ([]entity.FetchCandidate, error) {
	log := f.logger.With(zap.String("source", src.ID))
	set := newCandidateSet()
	var errs []error
	attempts := 0

	if src.HasFeed() && f.feeds != nil {
		attempts++
		if err := f.fromFeed(ctx, src, set); err != nil {
			log.Warn("feed fetch failed", zap.String("url", src.FeedURL), zap.Error(err))
			errs = append(errs, err)
		}
	}

	feedCount := set.len()
	if feedCount >= f.opts.FeedMinCandidates {
		log.Debug("feed sufficient, skipping crawl", zap.Int("candidates", feedCount))
		return set.items, nil
	}

	crawled, crawlErrs := f.fromCrawl(ctx, src, set)
	attempts += len(src.SearchPaths)
	errs = append(errs, crawlErrs...)

	log.Info("candidates discovered",
		zap.Int("from_feed", feedCount), zap.Int("from_crawl", crawled))

	if set.len() == 0 && len(errs) > 0 && len(errs) >= attempts {
		return nil, fmt.Errorf("source %s: %w", src.ID, errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return set.items, err
	}
	return set.items, nil
}

func (f *Fetcher) fromFeed(ctx context.Context, src entity.SourceDescriptor, set *candidateSet) error {
	start := time.Now()
	entries, err := f.feeds.FetchFeed(ctx, src.FeedURL)
	f.metrics.ObserveFetch("feed", time.Since(start).Seconds())
	if err != nil {
		f.metrics.IncFetchFailure("feed", repository.ErrorKind(err))
		return fmt.Errorf("feed %s: %w", src.FeedURL, err)
	}

	if len(entries) > f.opts.FeedMaxEntries {
		entries = entries[:f.opts.FeedMaxEntries]
	}

	cutoff := f.opts.Now().Add(-f.opts.FeedMaxAge)
	for _, e := range entries {
		// Unknown age is not disqualifying.
		if e.PublishedAt != nil && e.PublishedAt.Before(cutoff) {
			continue
		}
		link, err := utils.CanonicalURL(e.URL)
		if err != nil {
			continue
		}
		set.add(entity.FetchCandidate{
			SourceID:    src.ID,
			URL:         link,
			Title:       e.Title,
			PublishedAt: e.PublishedAt,
		})
	}
	return nil
}

// fromCrawl scans every search path and returns how many new candidates it
// added, along with one error per failed path.
func (f *Fetcher) fromCrawl(ctx context.Context, src entity.SourceDescriptor, set *candidateSet) (int, []error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return 0, []error{fmt.Errorf("base url %q: %w", src.BaseURL, err)}
	}

	added := 0
	var errs []error
	for _, path := range src.SearchPaths {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := f.crawlPath(ctx, src, base, path, set)
		if err != nil {
			f.logger.Warn("search path failed",
				zap.String("source", src.ID), zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		added += n
	}
	return added, errs
}

func (f *Fetcher) crawlPath(ctx context.Context, src entity.SourceDescriptor, base *url.URL, path string, set *candidateSet) (int, error) {
	pageURL, err := base.Parse(path)
	if err != nil {
		return 0, fmt.Errorf("search path %q: %w", path, err)
	}

	start := time.Now()
	body, err := f.pages.Fetch(ctx, pageURL.String())
	f.metrics.ObserveFetch("listing", time.Since(start).Seconds())
	if err != nil {
		f.metrics.IncFetchFailure("listing", repository.ErrorKind(err))
		return 0, fmt.Errorf("listing %s: %w", pageURL, err)
	}

	links, err := DiscoverLinks(pageURL, body, linkHints(src.Hints.ArticleLink))
	if err != nil {
		return 0, err
	}

	added := 0
	for _, link := range links {
		if added >= f.opts.LinksPerSearchPath {
			break
		}
		if set.add(entity.FetchCandidate{SourceID: src.ID, URL: link}) {
			added++
		}
	}
	return added, nil
}

type candidateSet struct {
	items []entity.FetchCandidate
	seen  map[string]bool
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]bool)}
}

func (s *candidateSet) add(c entity.FetchCandidate) bool {
	if s.seen[c.URL] {
		return false
	}
	s.seen[c.URL] = true
	s.items = append(s.items, c)
	return true
}

func (s *candidateSet) len() int {
	return len(s.items)
}
