// Package content turns a fetched article page into normalized text through
// an ordered chain of extraction stages.
package content

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/pkg/metrics"
)

const (
	DefaultMaxLength = 10000
	// minBodyLength is the length a stage's output must exceed to be accepted.
	minBodyLength = 200
)

// boilerplate is removed before any text is read from a page.
const boilerplate = "script, style, nav, footer, aside"

// genericBodyHints are tried after the source's own body hint.
var genericBodyHints = []string{
	".article-content",
	".post-content",
	".entry-content",
	".content",
	"article",
	".story-body",
	".article-body",
}

// Extractor runs the content chain. Rich and Renderer are optional.
type Extractor struct {
	pages     repository.PageFetcher
	rich      repository.RichExtractor
	renderer  repository.Renderer
	maxLength int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

type Option func(*Extractor)

func WithRichExtractor(r repository.RichExtractor) Option {
	return func(e *Extractor) { e.rich = r }
}

func WithRenderer(r repository.Renderer) Option {
	return func(e *Extractor) { e.renderer = r }
}

func WithMaxLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		if m != nil {
			e.metrics = m
		}
	}
}

func NewExtractor(pages repository.PageFetcher, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		pages:     pages,
		maxLength: DefaultMaxLength,
		metrics:   metrics.NewNop(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: a stage that errors falls through to the next one,
// and total failure yields an article with an empty Body.
func (e *Extractor) Extract(ctx context.Context, src entity.SourceDescriptor, c entity.FetchCandidate) entity.NormalizedArticle {
	article := entity.NormalizedArticle{
		SourceID:    c.SourceID,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
	}
	log := e.logger.With(zap.String("source", c.SourceID), zap.String("url", c.URL))

	start := time.Now()
	html, err := e.pages.Fetch(ctx, c.URL)
	e.metrics.ObserveFetch("article", time.Since(start).Seconds())
	if err != nil {
		e.metrics.IncFetchFailure("article", repository.ErrorKind(err))
		log.Info("article fetch failed", zap.Error(err))
		return article
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		log.Debug("article markup unparseable", zap.Error(err))
		return article
	}

	var richTitle string
	body, stage := "", ""

	if e.rich != nil {
		rc, err := e.rich.ExtractArticle(ctx, c.URL, html)
		switch {
		case err != nil:
			log.Debug("rich extraction failed", zap.Error(err))
		default:
			richTitle = singleLine(rc.Title)
			if text := normalizeText(rc.Text); longEnough(text, minBodyLength) {
				body, stage = text, "rich"
			}
		}
	}

	title := e.resolveTitle(doc, src, c, richTitle)
	if article.PublishedAt == nil {
		article.PublishedAt = publishedAt(doc, src.Hints.Date)
	}

	doc.Find(boilerplate).Remove()

	if body == "" {
		body = bySelectors(doc, src.Hints.Body)
		stage = "selectors"
	}
	if body == "" && e.renderer != nil && ctx.Err() == nil {
		body, stage = e.rendered(ctx, c.URL, src.Hints.Body, log)
	}
	if body == "" {
		body, stage = normalizeText(doc.Find("body").Text()), "page"
	}

	article.Body = truncate(body, e.maxLength)
	if title == "" {
		title = titleFromBody(article.Body)
	}
	if title == "" {
		title = entity.UntitledArticle
	}
	article.Title = title

	log.Debug("article extracted", zap.String("stage", stage), zap.Int("length", len(article.Body)))
	return article
}

func (e *Extractor) rendered(ctx context.Context, url, bodyHint string, log *zap.Logger) (string, string) {
	start := time.Now()
	html, err := e.renderer.Render(ctx, url)
	e.metrics.ObserveFetch("render", time.Since(start).Seconds())
	if err != nil {
		e.metrics.IncFetchFailure("render", repository.ErrorKind(err))
		log.Debug("render failed", zap.Error(err))
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	doc.Find(boilerplate).Remove()
	if body := bySelectors(doc, bodyHint); body != "" {
		return body, "render"
	}
	return "", ""
}

// bySelectors returns the text of the first hinted element whose text is
// long enough, or "".
func bySelectors(doc *goquery.Document, sourceHint string) string {
	hints := genericBodyHints
	if sourceHint != "" {
		hints = append([]string{sourceHint}, genericBodyHints...)
	}
	for _, hint := range hints {
		sel := doc.Find(hint).First()
		if sel.Length() == 0 {
			continue
		}
		if text := normalizeText(sel.Text()); longEnough(text, minBodyLength) {
			return text
		}
	}
	return ""
}

func (e *Extractor) resolveTitle(doc *goquery.Document, src entity.SourceDescriptor, c entity.FetchCandidate, richTitle string) string {
	candidates := []func() string{
		func() string { return c.Title },
		func() string {
			if src.Hints.Title == "" {
				return ""
			}
			return doc.Find(src.Hints.Title).First().Text()
		},
		func() string { return doc.Find(`meta[property="og:title"]`).AttrOr("content", "") },
		func() string { return doc.Find("head title").First().Text() },
		func() string { return richTitle },
	}
	for _, next := range candidates {
		if t := singleLine(next()); t != "" {
			return t
		}
	}
	return ""
}

// publishedAt reads the source's date hint, then the Open Graph article
// timestamp. Unparseable values are treated as absent.
func publishedAt(doc *goquery.Document, dateHint string) *time.Time {
	var raw []string
	if dateHint != "" {
		sel := doc.Find(dateHint).First()
		if v, ok := sel.Attr("datetime"); ok {
			raw = append(raw, v)
		}
		if v, ok := sel.Attr("content"); ok {
			raw = append(raw, v)
		}
		raw = append(raw, sel.Text())
	}
	raw = append(raw,
		doc.Find(`meta[property="article:published_time"]`).AttrOr("content", ""),
		doc.Find("time[datetime]").First().AttrOr("datetime", ""),
	)

	for _, v := range raw {
		v = singleLine(v)
		if v == "" {
			continue
		}
		if t, err := dateparse.ParseAny(v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
