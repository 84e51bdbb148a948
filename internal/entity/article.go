package entity

import "time"

// FetchCandidate is an article reference discovered by the fetcher.
type FetchCandidate struct {
	SourceID    string
	URL         string // canonical, absolute
	Title       string // set when the candidate came from a feed entry
	PublishedAt *time.Time
}

// NormalizedArticle is the cleaned article handed to the revenue extractor.
type NormalizedArticle struct {
	SourceID    string
	Title       string
	URL         string
	Body        string
	PublishedAt *time.Time
}

// UntitledArticle is the title of an article no title could be found for.
const UntitledArticle = "Untitled Article"

// AnalysisText is the text revenue and company extraction run over. The
// placeholder title is not part of it.
func (a NormalizedArticle) AnalysisText() string {
	if a.Title == "" || a.Title == UntitledArticle {
		return a.Body
	}
	return a.Title + " " + a.Body
}
