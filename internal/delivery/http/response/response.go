package response

import (
	"time"

	"github.com/user/revenue-tracker/internal/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RunAcceptedResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

type SignalResponse struct {
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount_millions"`
	Span   string  `json:"span"`
}

type CandidateResponse struct {
	SourceID    string         `json:"source"`
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Company     string         `json:"company"`
	Decision    string         `json:"decision"`
	Signal      SignalResponse `json:"signal"`
}

type RunReportResponse struct {
	RunID      string              `json:"run_id"`
	Running    bool                `json:"running"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Sources    []string            `json:"sources,omitempty"`
	Candidates []CandidateResponse `json:"candidates"`
}

type AlertResponse struct {
	ID          int64      `json:"id"`
	SourceID    string     `json:"source"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Kind        string     `json:"kind"`
	Amount      float64    `json:"amount_millions"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type SourceResponse struct {
	ID          string   `json:"id"`
	BaseURL     string   `json:"base_url"`
	FeedURL     string   `json:"feed_url,omitempty"`
	SearchPaths []string `json:"search_paths"`
}

func NewCandidate(c entity.RevenueCandidate) CandidateResponse {
	return CandidateResponse{
		SourceID:    c.Article.SourceID,
		URL:         c.Article.URL,
		Title:       c.Article.Title,
		PublishedAt: c.Article.PublishedAt,
		Company:     c.Company,
		Decision:    string(c.Decision),
		Signal: SignalResponse{
			Kind:   string(c.Signal.Kind),
			Amount: c.Signal.Amount,
			Span:   c.Signal.Span,
		},
	}
}

func NewAlert(a entity.Alert) AlertResponse {
	return AlertResponse{
		ID:          a.ID,
		SourceID:    a.SourceID,
		URL:         a.ArticleURL,
		Title:       a.ArticleTitle,
		Company:     a.Company,
		Kind:        string(a.Kind),
		Amount:      a.Amount,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}
}

func NewSource(s entity.SourceDescriptor) SourceResponse {
	return SourceResponse{
		ID:          s.ID,
		BaseURL:     s.BaseURL,
		FeedURL:     s.FeedURL,
		SearchPaths: s.SearchPaths,
	}
}
