package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRobotsTTL   = 24 * time.Hour
	maxRobotsBodyBytes = 512 * 1024
)

// robotsChecker caches parsed robots.txt rules per host. A robots.txt that
// is missing, unreachable or unparseable allows everything. Concurrent
// lookups for one host share a single download.
type robotsChecker struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	group     singleflight.Group

	mu    sync.RWMutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData // nil means allow all
	fetchedAt time.Time
}

func newRobotsChecker(client *http.Client, userAgent string, ttl time.Duration) *robotsChecker {
	if ttl <= 0 {
		ttl = defaultRobotsTTL
	}
	return &robotsChecker{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		cache:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether target may be fetched. A lookup abandoned by ctx
// allows; the fetch that follows fails on ctx anyway.
func (r *robotsChecker) Allowed(ctx context.Context, target *url.URL) bool {
	entry, _, err := r.lookup(ctx, target)
	if err != nil || entry.data == nil {
		return true
	}
	path := target.EscapedPath()
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return entry.data.TestAgent(path, r.userAgent)
}

// lookup returns the rules for target's host and whether they had to be
// downloaded.
func (r *robotsChecker) lookup(ctx context.Context, target *url.URL) (robotsEntry, bool, error) {
	host := strings.ToLower(target.Host)
	if entry, ok := r.cached(host); ok {
		return entry, false, nil
	}

	// The download is not bound to one caller's ctx; the client timeout bounds it.
	dctx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(host, func() (interface{}, error) {
		if entry, ok := r.cached(host); ok {
			return entry, nil
		}
		return r.fetch(dctx, target.Scheme, host), nil
	})
	select {
	case res := <-ch:
		return res.Val.(robotsEntry), true, nil
	case <-ctx.Done():
		return robotsEntry{}, false, ctx.Err()
	}
}

func (r *robotsChecker) cached(host string) (robotsEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[host]
	if !ok || time.Since(entry.fetchedAt) > r.ttl {
		return robotsEntry{}, false
	}
	return entry, true
}

func (r *robotsChecker) fetch(ctx context.Context, scheme, host string) robotsEntry {
	entry := robotsEntry{fetchedAt: time.Now()}
	if body, err := r.download(ctx, scheme+"://"+host+"/robots.txt"); err == nil {
		if data, err := robotstxt.FromBytes(body); err == nil {
			entry.data = data
		}
	}

	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()
	return entry
}

func (r *robotsChecker) download(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("robots.txt status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
}
