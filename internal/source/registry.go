// Package source holds the static table of news sources the tracker watches.
package source

import (
	"fmt"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
)

var defaultSources = []entity.SourceDescriptor{
	{
		ID:          "techcrunch",
		BaseURL:     "https://techcrunch.com",
		FeedURL:     "https://techcrunch.com/feed/",
		SearchPaths: []string{"/startups/", "/funding/", "/venture/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".post-block",
			Title:       ".post-block__title",
			Body:        ".article-content",
			Date:        ".river-byline__time",
		},
	},
	{
		ID:          "business_insider",
		BaseURL:     "https://www.businessinsider.com",
		SearchPaths: []string{"/prime/", "/tech/", "/startups/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".tout-title-link",
			Title:       "h1",
			Body:        ".content-lock-content",
			Date:        ".byline-timestamp",
		},
	},
	{
		ID:          "axios",
		BaseURL:     "https://www.axios.com",
		SearchPaths: []string{"/pro-rata/", "/technology/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".gtm-story-link",
			Title:       "h1",
			Body:        ".markup",
			Date:        ".timestamp",
		},
	},
	{
		ID:          "forbes",
		BaseURL:     "https://www.forbes.com",
		FeedURL:     "https://www.forbes.com/innovation/feed2/",
		SearchPaths: []string{"/sites/alexkonrad/", "/venture-capital/", "/startups/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".stream-item",
			Title:       "h3",
			Body:        ".article-body",
			Date:        ".timestamp",
		},
	},
	{
		ID:          "fortune",
		BaseURL:     "https://fortune.com",
		SearchPaths: []string{"/term-sheet/", "/venture/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".article-link",
			Title:       "h1",
			Body:        ".article-content",
			Date:        ".timestamp",
		},
	},
	{
		ID:          "bloomberg",
		BaseURL:     "https://www.bloomberg.com",
		SearchPaths: []string{"/technology/", "/venture-capital/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".story-package-module__story",
			Title:       "h1",
			Body:        ".body-content",
			Date:        ".timestamp",
		},
	},
	{
		ID:          "pitchbook",
		BaseURL:     "https://pitchbook.com",
		SearchPaths: []string{"/news/", "/blog/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".news-item",
			Title:       "h2",
			Body:        ".content",
			Date:        ".date",
		},
	},
	{
		ID:          "crunchbase",
		BaseURL:     "https://news.crunchbase.com",
		FeedURL:     "https://news.crunchbase.com/feed/",
		SearchPaths: []string{"/venture/", "/startups/", "/funding/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".post-item",
			Title:       "h2",
			Body:        ".post-content",
			Date:        ".post-date",
		},
	},
	{
		ID:          "cb_insights",
		BaseURL:     "https://www.cbinsights.com",
		SearchPaths: []string{"/research/", "/reports/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".research-brief",
			Title:       "h3",
			Body:        ".brief-content",
			Date:        ".date",
		},
	},
	{
		ID:          "dealroom",
		BaseURL:     "https://dealroom.co",
		SearchPaths: []string{"/blog/", "/reports/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".blog-post",
			Title:       "h1",
			Body:        ".post-content",
			Date:        ".date",
		},
	},
	{
		ID:          "tracxn",
		BaseURL:     "https://tracxn.com",
		SearchPaths: []string{"/explore/", "/reports/"},
		Hints: entity.SelectorHints{
			ArticleLink: ".news-item",
			Title:       "h2",
			Body:        ".content",
			Date:        ".date",
		},
	},
}

// Registry is an immutable, ordered set of sources.
type Registry struct {
	sources []entity.SourceDescriptor
	byID    map[string]int
}

// NewRegistry builds a registry from descriptors, rejecting duplicate ids.
func NewRegistry(sources []entity.SourceDescriptor) (*Registry, error) {
	r := &Registry{
		sources: make([]entity.SourceDescriptor, 0, len(sources)),
		byID:    make(map[string]int, len(sources)),
	}
	for _, s := range sources {
		if s.ID == "" || s.BaseURL == "" {
			return nil, fmt.Errorf("source %q: id and base url are required", s.ID)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		r.byID[s.ID] = len(r.sources)
		r.sources = append(r.sources, clone(s))
	}
	return r, nil
}

// Default returns the built-in source table.
func Default() *Registry {
	r, err := NewRegistry(defaultSources)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns copies of every source in registry order.
func (r *Registry) All() []entity.SourceDescriptor {
	out := make([]entity.SourceDescriptor, len(r.sources))
	for i, s := range r.sources {
		out[i] = clone(s)
	}
	return out
}

func (r *Registry) Get(id string) (entity.SourceDescriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return entity.SourceDescriptor{}, false
	}
	return clone(r.sources[i]), true
}

// Select returns the sources named by ids, or all sources when ids is empty.
func (r *Registry) Select(ids []string) ([]entity.SourceDescriptor, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	out := make([]entity.SourceDescriptor, 0, len(ids))
	for _, id := range ids {
		s, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("source %q: %w", id, repository.ErrNotFound)
		}
		out = append(out, s)
	}
	return out, nil
}

func clone(s entity.SourceDescriptor) entity.SourceDescriptor {
	s.SearchPaths = append([]string(nil), s.SearchPaths...)
	return s
}
