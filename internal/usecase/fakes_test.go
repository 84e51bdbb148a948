package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
)

type fakeWeb struct {
	mu      sync.Mutex
	pages   map[string]string
	feeds   map[string][]repository.FeedEntry
	hits    map[string]int
	delay   time.Duration
	// onFetch runs at the start of every page fetch.
	onFetch func(url string)
	active  atomic.Int32
	peak    atomic.Int32
}

func newFakeWeb() *fakeWeb {
	return &fakeWeb{
		pages: map[string]string{},
		feeds: map[string][]repository.FeedEntry{},
		hits:  map[string]int{},
	}
}

func (w *fakeWeb) enter() func() {
	n := w.active.Add(1)
	for {
		p := w.peak.Load()
		if n <= p || w.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	return func() { w.active.Add(-1) }
}

func (w *fakeWeb) Fetch(ctx context.Context, url string) ([]byte, error) {
	if w.onFetch != nil {
		w.onFetch(url)
	}
	defer w.enter()()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits[url]++
	body, ok := w.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: 404", repository.ErrHTTPStatus)
	}
	return []byte(body), nil
}

func (w *fakeWeb) FetchFeed(ctx context.Context, url string) ([]repository.FeedEntry, error) {
	defer w.enter()()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits[url]++
	entries, ok := w.feeds[url]
	if !ok {
		return nil, fmt.Errorf("%w: 404", repository.ErrHTTPStatus)
	}
	return entries, nil
}

func (w *fakeWeb) setPage(url, html string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[url] = html
}

func (w *fakeWeb) hitCount(url string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[url]
}

var filler = strings.Repeat("the quarterly numbers were discussed at length by analysts on the call. ", 5)

func articleHTML(sentence string) string {
	return `<html><body><nav>Home Markets</nav><article><p>` + sentence + ` ` + filler + `</p></article></body></html>`
}

// feedSource builds a source whose feed lists the given article paths.
func feedSource(w *fakeWeb, id string, articles map[string]string, order ...string) entity.SourceDescriptor {
	base := "https://" + id + ".example.com"
	feedURL := base + "/feed/"
	var entries []repository.FeedEntry
	for _, path := range order {
		u := base + path
		entries = append(entries, repository.FeedEntry{Title: articles[path], URL: u})
	}
	w.feeds[feedURL] = entries
	return entity.SourceDescriptor{ID: id, BaseURL: base, FeedURL: feedURL}
}

type fakeStore struct {
	mu      sync.Mutex
	saved   []entity.RevenueCandidate
	pending []entity.Alert
	sent    []int64
	recent  []entity.Alert
	stats   entity.StoreStats
	since   time.Time
	saveErr error
	listErr error
}

func (s *fakeStore) Save(_ context.Context, c entity.RevenueCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, c)
	return nil
}

func (s *fakeStore) ListPending(_ context.Context, minAmount float64) ([]entity.Alert, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []entity.Alert
	for _, a := range s.pending {
		if a.Amount >= minAmount {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListSentSince(_ context.Context, since time.Time) ([]entity.Alert, error) {
	s.since = since
	return s.recent, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) Stats(context.Context) (*entity.StoreStats, error) {
	st := s.stats
	return &st, nil
}

type fakeNotifier struct {
	alerts  [][]entity.Alert
	summary *entity.StoreStats
	recent  []entity.Alert
	err     error
}

func (n *fakeNotifier) NotifyAlerts(_ context.Context, alerts []entity.Alert) error {
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alerts)
	return nil
}

func (n *fakeNotifier) NotifySummary(_ context.Context, stats entity.StoreStats, recent []entity.Alert) error {
	if n.err != nil {
		return n.err
	}
	n.summary = &stats
	n.recent = recent
	return nil
}
