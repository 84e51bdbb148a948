package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/revenue-tracker/internal/company"
	"github.com/user/revenue-tracker/internal/dedup"
	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/internal/revenue"
)

func newTestPipeline(w *fakeWeb, cfg PipelineConfig) *Pipeline {
	return NewPipeline(
		Capabilities{Pages: w, Feeds: w},
		dedup.New(nil, nil),
		revenue.NewExtractor(revenue.DefaultThreshold, nil),
		company.NewAttributor(),
		cfg,
		nil,
		nil,
	)
}

func TestRun_EndToEnd(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{
		"/acme": "Acme update",
		"/tiny": "Seed news",
	}, "/acme", "/tiny")
	w.setPage("https://alpha.example.com/acme", articleHTML("Acme Corp reported $45 million in ARR."))
	w.setPage("https://alpha.example.com/tiny", articleHTML("Tiny Startup raised $5 million Series A."))

	got := newTestPipeline(w, PipelineConfig{}).Run(context.Background(), []entity.SourceDescriptor{src})

	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, entity.KindARR, c.Signal.Kind)
	assert.InDelta(t, 45.0, c.Signal.Amount, 1e-9)
	assert.Equal(t, "Acme Corp", c.Company)
	assert.Equal(t, entity.DecisionEmit, c.Decision)
	assert.Equal(t, "Acme update", c.Article.Title)
	assert.Equal(t, "https://alpha.example.com/acme", c.Article.URL)
	assert.Equal(t, "alpha", c.Article.SourceID)
	assert.NotContains(t, c.Article.Body, "Home Markets")
}

func TestRun_BillionScale(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/big": "big numbers"}, "/big")
	w.setPage("https://alpha.example.com/big", articleHTML("the business crossed $2.5 billion revenue this year."))

	got := newTestPipeline(w, PipelineConfig{}).Run(context.Background(), []entity.SourceDescriptor{src})
	require.Len(t, got, 1)
	assert.InDelta(t, 2500.0, got[0].Signal.Amount, 1e-9)
	assert.Equal(t, entity.KindRevenue, got[0].Signal.Kind)
}

func TestRun_ConcurrentDiscoveryProcessedOnce(t *testing.T) {
	w := newFakeWeb()
	w.delay = 5 * time.Millisecond
	shared := "https://wire.example.com/2024/acme"
	w.setPage(shared, articleHTML("Acme Corp reported $45 million in ARR."))

	var sources []entity.SourceDescriptor
	for _, id := range []string{"one", "two", "three", "four"} {
		feedURL := "https://" + id + ".example.com/feed/"
		w.feeds[feedURL] = []repository.FeedEntry{{Title: "Acme", URL: shared}}
		sources = append(sources, entity.SourceDescriptor{ID: id, BaseURL: "https://" + id + ".example.com", FeedURL: feedURL})
	}

	got := newTestPipeline(w, PipelineConfig{MaxConcurrentSources: 4}).Run(context.Background(), sources)

	assert.Len(t, got, 1)
	assert.Equal(t, 1, w.hitCount(shared), "the article is fetched by exactly one source")
}

func TestRun_SourceFailureDoesNotAbortRun(t *testing.T) {
	w := newFakeWeb()
	broken := entity.SourceDescriptor{
		ID:          "broken",
		BaseURL:     "https://broken.example.com",
		FeedURL:     "https://broken.example.com/feed/",
		SearchPaths: []string{"/news/"},
	}
	good := feedSource(w, "good", map[string]string{"/acme": "Acme"}, "/acme")
	w.setPage("https://good.example.com/acme", articleHTML("Acme Corp reported $45 million in ARR."))

	got := newTestPipeline(w, PipelineConfig{}).Run(context.Background(), []entity.SourceDescriptor{broken, good})
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Article.SourceID)
}

func TestRun_DuplicatesAcrossRunsSuppressed(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/acme": "Acme"}, "/acme")
	w.setPage("https://alpha.example.com/acme", articleHTML("Acme Corp reported $45 million in ARR."))
	p := newTestPipeline(w, PipelineConfig{})

	require.Len(t, p.Run(context.Background(), []entity.SourceDescriptor{src}), 1)
	assert.Empty(t, p.Run(context.Background(), []entity.SourceDescriptor{src}))
	assert.Equal(t, 1, w.hitCount("https://alpha.example.com/acme"))
}

func TestRun_EmptyArticleReleasedForRetry(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/acme": "Acme"}, "/acme")
	p := newTestPipeline(w, PipelineConfig{})

	assert.Empty(t, p.Run(context.Background(), []entity.SourceDescriptor{src}), "article page missing")

	w.setPage("https://alpha.example.com/acme", articleHTML("Acme Corp reported $45 million in ARR."))
	assert.Len(t, p.Run(context.Background(), []entity.SourceDescriptor{src}), 1)
}

func TestRun_SuppressUnattributed(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/x": "numbers"}, "/x")
	w.setPage("https://alpha.example.com/x", articleHTML("$45 million in revenue was booked last quarter."))

	got := newTestPipeline(w, PipelineConfig{SuppressUnattributed: true}).Run(context.Background(), []entity.SourceDescriptor{src})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Company)
	assert.Equal(t, entity.DecisionSuppress, got[0].Decision)
}

func TestRun_PlaceholderTitleNotAttributed(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/x": ""}, "/x")
	w.setPage("https://alpha.example.com/x", articleHTML("the company posted $40 million in revenue last quarter."))

	got := newTestPipeline(w, PipelineConfig{}).Run(context.Background(), []entity.SourceDescriptor{src})
	require.Len(t, got, 1)
	assert.Equal(t, entity.UntitledArticle, got[0].Article.Title)
	assert.Empty(t, got[0].Company)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/acme": "Acme"}, "/acme")
	w.setPage("https://alpha.example.com/acme", articleHTML("Acme Corp reported $45 million in ARR."))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, newTestPipeline(w, PipelineConfig{}).Run(ctx, []entity.SourceDescriptor{src}))
	assert.Zero(t, w.hitCount("https://alpha.example.com/feed/"))
}

func TestRun_CancelledMidFetchEmitsNothingAndReleases(t *testing.T) {
	w := newFakeWeb()
	articleURL := "https://alpha.example.com/acme"
	src := feedSource(w, "alpha", map[string]string{"/acme": "Acme"}, "/acme")
	w.setPage(articleURL, articleHTML("Acme Corp reported $45 million in ARR."))
	p := newTestPipeline(w, PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.onFetch = func(url string) {
		if url == articleURL {
			cancel()
		}
	}

	assert.Empty(t, p.Run(ctx, []entity.SourceDescriptor{src}), "abandoned article must not be emitted")

	exists, err := p.dedup.Exists(context.Background(), articleURL)
	require.NoError(t, err)
	assert.False(t, exists, "claim is released when the fetch is abandoned")

	w.onFetch = nil
	got := p.Run(context.Background(), []entity.SourceDescriptor{src})
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Corp", got[0].Company)
}

func TestRun_ConcurrencyCap(t *testing.T) {
	w := newFakeWeb()
	w.delay = 20 * time.Millisecond
	var sources []entity.SourceDescriptor
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		sources = append(sources, feedSource(w, id, nil))
	}

	newTestPipeline(w, PipelineConfig{MaxConcurrentSources: 2}).Run(context.Background(), sources)

	assert.LessOrEqual(t, w.peak.Load(), int32(2))
	for _, s := range sources {
		assert.Equal(t, 1, w.hitCount(s.FeedURL))
	}
}

func TestRun_PerSourceDelay(t *testing.T) {
	w := newFakeWeb()
	src := feedSource(w, "alpha", map[string]string{"/a": "A", "/b": "B"}, "/a", "/b")
	w.setPage("https://alpha.example.com/a", articleHTML("nothing here."))
	w.setPage("https://alpha.example.com/b", articleHTML("nothing here either."))

	start := time.Now()
	newTestPipeline(w, PipelineConfig{RequestDelay: 40 * time.Millisecond}).Run(context.Background(), []entity.SourceDescriptor{src})

	// feed, article a, article b: two enforced gaps.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRunID(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.Equal(t, "abc", RunIDFromContext(WithRunID(context.Background(), "abc")))
}
