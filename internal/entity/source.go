package entity

// SelectorHints names the CSS selectors a source publishes its markup under.
// An empty field means the source has no hint for that role and the generic
// fallbacks apply.
type SelectorHints struct {
	ArticleLink string
	Title       string
	Body        string
	Date        string
}

// SourceDescriptor describes one news source. Descriptors are built once from
// the static registry and never mutated.
type SourceDescriptor struct {
	ID          string
	BaseURL     string
	FeedURL     string // optional
	SearchPaths []string
	Hints       SelectorHints
}

// HasFeed reports whether the source publishes an RSS/Atom feed.
func (s SourceDescriptor) HasFeed() bool {
	return s.FeedURL != ""
}
