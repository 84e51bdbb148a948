package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/adapter/chromedp_renderer"
	"github.com/user/revenue-tracker/internal/adapter/feed"
	"github.com/user/revenue-tracker/internal/adapter/httpfetch"
	"github.com/user/revenue-tracker/internal/adapter/postgres"
	"github.com/user/revenue-tracker/internal/adapter/readability"
	redis_adapter "github.com/user/revenue-tracker/internal/adapter/redis"
	"github.com/user/revenue-tracker/internal/adapter/smtp"
	"github.com/user/revenue-tracker/internal/company"
	"github.com/user/revenue-tracker/internal/dedup"
	"github.com/user/revenue-tracker/internal/delivery/http/handler"
	"github.com/user/revenue-tracker/internal/fetcher"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/internal/revenue"
	"github.com/user/revenue-tracker/internal/source"
	"github.com/user/revenue-tracker/internal/usecase"
	"github.com/user/revenue-tracker/pkg/config"
	"github.com/user/revenue-tracker/pkg/metrics"
)

// app is the fully wired tracker.
type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tracker  *usecase.Tracker
	alerts   *usecase.AlertDispatcher // nil without a store
	checks   map[string]handler.HealthCheck

	closers []func()
}

// newApp connects the configured backends and builds the use cases. The
// caller must Close the app.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{checks: map[string]handler.HealthCheck{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	sources, err := source.Default().Select(cfg.SourceIDs())
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	if cfg.DedupBackend == config.BackendPostgres || cfg.StoreBackend == config.BackendPostgres {
		pool, err = postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		a.checks["postgres"] = pool.Ping
		logger.Info("PostgreSQL connection pool established")
	}

	var index repository.SeenIndex
	switch cfg.DedupBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		index = redis_adapter.NewSeenIndex(rdb, cfg.DedupTTL)
		logger.Info("Redis connection established")
	case config.BackendPostgres:
		index = postgres.NewSeenIndex(pool)
	}

	var store repository.CandidateRepository
	if cfg.StoreBackend == config.BackendPostgres {
		store = postgres.NewCandidateRepo(pool)
	}

	pages := httpfetch.New(httpfetch.Options{
		Timeout:       cfg.FetchTimeout,
		UserAgent:     cfg.UserAgent,
		RespectRobots: cfg.RespectRobots,
	}, logger)
	caps := usecase.Capabilities{
		Pages: pages,
		Feeds: feed.NewFetcher(pages),
		Rich:  readability.NewExtractor(),
	}
	if cfg.JSRenderEnabled {
		renderer, err := chromedp_renderer.NewChromedpRenderer(cfg.MaxConcurrentSources, cfg.JSRenderTimeout, cfg.UserAgent, logger)
		if err != nil {
			return nil, fmt.Errorf("start renderer: %w", err)
		}
		a.closers = append(a.closers, renderer.Close)
		caps.Renderer = renderer
	}

	pipeline := usecase.NewPipeline(
		caps,
		dedup.New(index, logger),
		revenue.NewExtractor(cfg.RevenueThreshold, logger),
		company.NewAttributor(),
		usecase.PipelineConfig{
			MaxConcurrentSources: cfg.MaxConcurrentSources,
			RequestDelay:         cfg.RequestDelay,
			MaxContentLength:     cfg.MaxContentLength,
			SuppressUnattributed: cfg.SuppressUnattributed,
			Fetcher: fetcher.Options{
				FeedMaxEntries:     cfg.FeedMaxEntries,
				FeedMaxAge:         cfg.FeedMaxAge,
				FeedMinCandidates:  cfg.FeedMinCandidates,
				LinksPerSearchPath: cfg.LinksPerSearchPath,
			},
		},
		a.metrics,
		logger,
	)
	a.tracker = usecase.NewTracker(pipeline, sources, store, logger)

	if store != nil {
		notifier := smtp.NewNotifier(smtp.Options{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.NotificationEmail,
		}, logger)
		a.alerts = usecase.NewAlertDispatcher(store, notifier, cfg.RevenueThreshold, logger)
	}
	return a, nil
}

// Close releases backends in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
