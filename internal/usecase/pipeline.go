package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/revenue-tracker/internal/company"
	"github.com/user/revenue-tracker/internal/content"
	"github.com/user/revenue-tracker/internal/dedup"
	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/fetcher"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/internal/revenue"
	"github.com/user/revenue-tracker/pkg/metrics"
)

const DefaultMaxConcurrentSources = 5

// Capabilities are the network-facing collaborators of the pipeline. Pages
// is required; the rest are optional.
type Capabilities struct {
	Pages    repository.PageFetcher
	Feeds    repository.FeedFetcher
	Rich     repository.RichExtractor
	Renderer repository.Renderer
}

type PipelineConfig struct {
	MaxConcurrentSources int
	// RequestDelay is the fixed pause between two network calls to one source.
	RequestDelay         time.Duration
	MaxContentLength     int
	SuppressUnattributed bool
	Fetcher              fetcher.Options
}

// Pipeline turns sources into revenue candidates.
type Pipeline struct {
	caps       Capabilities
	cfg        PipelineConfig
	dedup      *dedup.Deduplicator
	revenue    *revenue.Extractor
	attributor *company.Attributor
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewPipeline(
	caps Capabilities,
	dd *dedup.Deduplicator,
	rev *revenue.Extractor,
	attr *company.Attributor,
	cfg PipelineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	if cfg.MaxConcurrentSources <= 0 {
		cfg.MaxConcurrentSources = DefaultMaxConcurrentSources
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		caps:       caps,
		cfg:        cfg,
		dedup:      dd,
		revenue:    rev,
		attributor: attr,
		metrics:    m,
		logger:     logger,
	}
}

// Run processes sources concurrently, at most MaxConcurrentSources at a time,
// and returns every candidate produced. It never fails: broken sources and
// articles are logged and skipped, and cancellation returns what was
// finished. Candidates are grouped by source in input order.
func (p *Pipeline) Run(ctx context.Context, sources []entity.SourceDescriptor) []entity.RevenueCandidate {
	start := time.Now()
	log := p.logger.With(zap.String("run_id", RunIDFromContext(ctx)))

	results := make([][]entity.RevenueCandidate, len(sources))
	var g errgroup.Group
	g.SetLimit(p.cfg.MaxConcurrentSources)

	for i, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = p.processSource(ctx, src, log.With(zap.String("source", src.ID)))
			return nil
		})
	}
	_ = g.Wait()

	var out []entity.RevenueCandidate
	for _, r := range results {
		out = append(out, r...)
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	log.Info("pipeline run finished",
		zap.Int("sources", len(sources)),
		zap.Int("candidates", len(out)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("cancelled", ctx.Err() != nil))
	return out
}

// processSource runs one source sequentially through every stage.
func (p *Pipeline) processSource(ctx context.Context, src entity.SourceDescriptor, log *zap.Logger) []entity.RevenueCandidate {
	limiter := newSourceLimiter(p.cfg.RequestDelay)
	pages := throttledPages{next: p.caps.Pages, limiter: limiter}

	var feeds repository.FeedFetcher
	if p.caps.Feeds != nil {
		feeds = throttledFeeds{next: p.caps.Feeds, limiter: limiter}
	}
	opts := []content.Option{content.WithMaxLength(p.cfg.MaxContentLength), content.WithMetrics(p.metrics)}
	if p.caps.Rich != nil {
		opts = append(opts, content.WithRichExtractor(p.caps.Rich))
	}
	if p.caps.Renderer != nil {
		opts = append(opts, content.WithRenderer(throttledRenderer{next: p.caps.Renderer, limiter: limiter}))
	}

	discover := fetcher.New(pages, feeds, p.cfg.Fetcher, p.metrics, log)
	extract := content.NewExtractor(pages, log, opts...)

	candidates, err := discover.Fetch(ctx, src)
	if err != nil && len(candidates) == 0 {
		if ctx.Err() == nil {
			log.Warn("source skipped", zap.Error(err))
		}
		p.metrics.SourcesProcessed.WithLabelValues(src.ID, "failed").Inc()
		return nil
	}

	var out []entity.RevenueCandidate
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		claimed, err := p.dedup.Claim(ctx, c.URL)
		if err != nil {
			log.Info("dedup check failed, skipping article", zap.String("url", c.URL), zap.Error(err))
			continue
		}
		if !claimed {
			p.metrics.Duplicates.Inc()
			continue
		}

		article := extract.Extract(ctx, src, c)
		if ctx.Err() != nil {
			p.release(ctx, c.URL, log)
			break
		}
		if article.Body == "" {
			p.release(ctx, c.URL, log)
			continue
		}
		p.metrics.ArticlesProcessed.WithLabelValues(src.ID).Inc()

		if cand, ok := p.analyze(article, log); ok {
			out = append(out, cand)
		}
	}

	p.metrics.SourcesProcessed.WithLabelValues(src.ID, "ok").Inc()
	log.Info("source processed", zap.Int("discovered", len(candidates)), zap.Int("candidates", len(out)))
	return out
}

// analyze runs revenue extraction and, on a hit, company attribution.
func (p *Pipeline) analyze(article entity.NormalizedArticle, log *zap.Logger) (entity.RevenueCandidate, bool) {
	text := article.AnalysisText()
	signal, ok := p.revenue.Extract(text)
	if !ok {
		return entity.RevenueCandidate{}, false
	}

	name := p.attributor.Attribute(text)
	decision := entity.DecisionEmit
	if name == "" && p.cfg.SuppressUnattributed {
		decision = entity.DecisionSuppress
	}
	p.metrics.Candidates.WithLabelValues(string(decision)).Inc()

	log.Info("revenue signal found",
		zap.String("url", article.URL),
		zap.String("company", name),
		zap.String("kind", string(signal.Kind)),
		zap.Float64("amount", signal.Amount),
		zap.String("decision", string(decision)))

	return entity.RevenueCandidate{
		Article:  article,
		Signal:   *signal,
		Company:  name,
		Decision: decision,
	}, true
}

// release frees a claim so a later run can retry the article. It must work
// after ctx is cancelled.
func (p *Pipeline) release(ctx context.Context, url string, log *zap.Logger) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.dedup.Release(rctx, url); err != nil {
		log.Debug("dedup release failed", zap.String("url", url), zap.Error(err))
	}
}
